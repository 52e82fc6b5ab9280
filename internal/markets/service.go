package markets

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/mercadolocal/mercados-backend/pkg/errors"
	"github.com/mercadolocal/mercados-backend/pkg/kv"
)

const keyPrefix = "market:"

// Market is a community-submitted market listing.
type Market struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Address         string   `json:"address"`
	Phone           string   `json:"phone"`
	Hours           string   `json:"hours"`
	Category        string   `json:"category"`
	Products        string   `json:"products"`
	Website         string   `json:"website"`
	Instagram       string   `json:"instagram"`
	Facebook        string   `json:"facebook"`
	Photos          []string `json:"photos"`
	CreatedByUserID string   `json:"created_by_user_id"`
	CreatedByName   string   `json:"created_by_name"`
	IsVerified      bool     `json:"is_verified"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

// CreateInput holds the validated payload to create a market.
type CreateInput struct {
	Name        string
	Description string
	Address     string
	Phone       string
	Hours       string
	Category    string
	Products    string
	Website     string
	Instagram   string
	Facebook    string
	Photos      []string
}

// UpdateInput holds optional mutation values; a set pointer replaces the
// stored value even when it points at an empty string.
type UpdateInput struct {
	Name        *string
	Description *string
	Address     *string
	Phone       *string
	Hours       *string
	Category    *string
	Products    *string
	Website     *string
	Instagram   *string
	Facebook    *string
	Photos      *[]string
}

// Actor identifies the authenticated user performing a mutation.
type Actor struct {
	ID   string
	Name string
}

type store interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
	GetByPrefix(ctx context.Context, prefix string) ([]json.RawMessage, error)
	Update(ctx context.Context, key string, fn func(raw json.RawMessage) (any, error)) error
}

type itineraryRemover interface {
	RemoveByMarket(ctx context.Context, marketID string) error
}

// Service exposes market directory operations.
type Service interface {
	List(ctx context.Context) ([]Market, error)
	ListByOwner(ctx context.Context, userID string) ([]Market, error)
	Get(ctx context.Context, id string) (*Market, error)
	Create(ctx context.Context, actor Actor, input CreateInput) (*Market, error)
	Update(ctx context.Context, actor Actor, id string, input UpdateInput) (*Market, error)
	Delete(ctx context.Context, actor Actor, id string) error
}

type service struct {
	store       store
	itineraries itineraryRemover
	now         func() time.Time
}

// NewService constructs a market service instance.
func NewService(st store, itineraries itineraryRemover) (Service, error) {
	if st == nil {
		return nil, fmt.Errorf("kv store required")
	}
	if itineraries == nil {
		return nil, fmt.Errorf("itinerary remover required")
	}
	return &service{store: st, itineraries: itineraries, now: time.Now}, nil
}

func (s *service) List(ctx context.Context) ([]Market, error) {
	raws, err := s.store.GetByPrefix(ctx, keyPrefix)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list markets")
	}
	markets := make([]Market, 0, len(raws))
	for _, raw := range raws {
		var m Market
		if err := json.Unmarshal(raw, &m); err != nil {
			continue
		}
		markets = append(markets, m)
	}
	sortByCreatedAtDesc(markets)
	return markets, nil
}

func (s *service) ListByOwner(ctx context.Context, userID string) ([]Market, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	mine := make([]Market, 0, len(all))
	for _, m := range all {
		if m.CreatedByUserID == userID {
			mine = append(mine, m)
		}
	}
	return mine, nil
}

func (s *service) Get(ctx context.Context, id string) (*Market, error) {
	var m Market
	if err := s.store.Get(ctx, keyPrefix+id, &m); err != nil {
		if err == kv.ErrNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "market not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load market")
	}
	return &m, nil
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateInput) (*Market, error) {
	now := s.now().UTC().Format(time.RFC3339)
	m := Market{
		ID:              uuid.NewString(),
		Name:            input.Name,
		Description:     input.Description,
		Address:         input.Address,
		Phone:           input.Phone,
		Hours:           input.Hours,
		Category:        input.Category,
		Products:        input.Products,
		Website:         input.Website,
		Instagram:       input.Instagram,
		Facebook:        input.Facebook,
		Photos:          input.Photos,
		CreatedByUserID: actor.ID,
		CreatedByName:   actor.Name,
		IsVerified:      false,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if m.Photos == nil {
		m.Photos = []string{}
	}
	if err := s.store.Set(ctx, keyPrefix+m.ID, m); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save market")
	}
	return &m, nil
}

func (s *service) Update(ctx context.Context, actor Actor, id string, input UpdateInput) (*Market, error) {
	var updated Market
	err := s.store.Update(ctx, keyPrefix+id, func(raw json.RawMessage) (any, error) {
		if raw == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "market not found")
		}
		var m Market
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode market")
		}
		if m.CreatedByUserID != actor.ID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you can only edit your own markets")
		}
		applyString(&m.Name, input.Name)
		applyString(&m.Description, input.Description)
		applyString(&m.Address, input.Address)
		applyString(&m.Phone, input.Phone)
		applyString(&m.Hours, input.Hours)
		applyString(&m.Category, input.Category)
		applyString(&m.Products, input.Products)
		applyString(&m.Website, input.Website)
		applyString(&m.Instagram, input.Instagram)
		applyString(&m.Facebook, input.Facebook)
		if input.Photos != nil {
			m.Photos = *input.Photos
			if m.Photos == nil {
				m.Photos = []string{}
			}
		}
		m.UpdatedAt = s.now().UTC().Format(time.RFC3339)
		updated = m
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *service) Delete(ctx context.Context, actor Actor, id string) error {
	m, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if m.CreatedByUserID != actor.ID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "you can only delete your own markets")
	}
	if err := s.store.Delete(ctx, keyPrefix+id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete market")
	}
	// Itineraries follow their market; vendors and reviews stay behind.
	if err := s.itineraries.RemoveByMarket(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove market itineraries")
	}
	return nil
}

func applyString(target *string, value *string) {
	if value != nil {
		*target = *value
	}
}

func sortByCreatedAtDesc(markets []Market) {
	sort.SliceStable(markets, func(i, j int) bool {
		return markets[i].CreatedAt > markets[j].CreatedAt
	})
}
