package favorites

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pkgerrors "github.com/mercadolocal/mercados-backend/pkg/errors"
	"github.com/mercadolocal/mercados-backend/pkg/kv"
)

const (
	keyPrefix = "favorites:"

	TypeMarket = "market"
	TypeVendor = "vendor"
)

// Item is a single favorited market or vendor.
type Item struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	AddedAt string `json:"added_at"`
}

// Favorites is a user's saved markets and vendors.
type Favorites struct {
	Markets []Item `json:"markets"`
	Vendors []Item `json:"vendors"`
}

type store interface {
	GetRaw(ctx context.Context, key string) (json.RawMessage, error)
	Update(ctx context.Context, key string, fn func(raw json.RawMessage) (any, error)) error
}

// Service exposes favorites operations.
type Service interface {
	Get(ctx context.Context, userID string) (*Favorites, error)
	Add(ctx context.Context, userID, favType, targetID, targetName string) (*Favorites, error)
	Remove(ctx context.Context, userID, favType, targetID string) (*Favorites, error)
}

type service struct {
	store store
	now   func() time.Time
}

// NewService constructs a favorites service instance.
func NewService(st store) (Service, error) {
	if st == nil {
		return nil, fmt.Errorf("kv store required")
	}
	return &service{store: st, now: time.Now}, nil
}

// Get returns the user's favorites. Missing or malformed documents come
// back as an empty, well-formed set; nothing is written on the read path.
func (s *service) Get(ctx context.Context, userID string) (*Favorites, error) {
	raw, err := s.store.GetRaw(ctx, keyPrefix+userID)
	if err != nil {
		if err == kv.ErrNotFound {
			return emptyFavorites(), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load favorites")
	}
	return normalize(raw), nil
}

func (s *service) Add(ctx context.Context, userID, favType, targetID, targetName string) (*Favorites, error) {
	if favType != TypeMarket && favType != TypeVendor {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, `Type must be "market" or "vendor"`)
	}
	item := Item{
		ID:      targetID,
		Name:    targetName,
		AddedAt: s.now().UTC().Format(time.RFC3339),
	}
	var result *Favorites
	err := s.store.Update(ctx, keyPrefix+userID, func(raw json.RawMessage) (any, error) {
		favorites := normalize(raw)
		if favType == TypeMarket {
			favorites.Markets = addItem(favorites.Markets, item)
		} else {
			favorites.Vendors = addItem(favorites.Vendors, item)
		}
		result = favorites
		return favorites, nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save favorites")
	}
	return result, nil
}

func (s *service) Remove(ctx context.Context, userID, favType, targetID string) (*Favorites, error) {
	if favType != TypeMarket && favType != TypeVendor {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, `Type must be "market" or "vendor"`)
	}
	var result *Favorites
	err := s.store.Update(ctx, keyPrefix+userID, func(raw json.RawMessage) (any, error) {
		favorites := normalize(raw)
		if favType == TypeMarket {
			favorites.Markets = removeItem(favorites.Markets, targetID)
		} else {
			favorites.Vendors = removeItem(favorites.Vendors, targetID)
		}
		result = favorites
		return favorites, nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save favorites")
	}
	return result, nil
}

func emptyFavorites() *Favorites {
	return &Favorites{Markets: []Item{}, Vendors: []Item{}}
}

func normalize(raw json.RawMessage) *Favorites {
	if len(raw) == 0 {
		return emptyFavorites()
	}
	var f Favorites
	if err := json.Unmarshal(raw, &f); err != nil {
		return emptyFavorites()
	}
	if f.Markets == nil {
		f.Markets = []Item{}
	}
	if f.Vendors == nil {
		f.Vendors = []Item{}
	}
	return &f
}

func addItem(items []Item, item Item) []Item {
	for _, existing := range items {
		if existing.ID == item.ID {
			return items
		}
	}
	return append(items, item)
}

func removeItem(items []Item, id string) []Item {
	kept := make([]Item, 0, len(items))
	for _, item := range items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	return kept
}
