package itineraries

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

const keyPrefix = "itinerary:"

// Stop is a single visit within an itinerary.
type Stop struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// Itinerary is a guided route through a market.
type Itinerary struct {
	ID              string `json:"id"`
	MarketID        string `json:"market_id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Duration        string `json:"duration"`
	Stops           []Stop `json:"stops"`
	CreatedByUserID string `json:"created_by_user_id"`
	CreatedByName   string `json:"created_by_name"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// CreateInput holds the validated payload to create an itinerary.
type CreateInput struct {
	MarketID    string
	Title       string
	Description string
	Duration    string
	Stops       []Stop
}

// UpdateInput holds optional mutation values; the market binding is fixed.
type UpdateInput struct {
	Title       *string
	Description *string
	Duration    *string
	Stops       *[]Stop
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

// Service exposes itinerary operations.
type Service interface {
	List(ctx context.Context, marketID string) ([]Itinerary, error)
	Create(ctx context.Context, actor Actor, input CreateInput) (*Itinerary, error)
	Update(ctx context.Context, actor Actor, id string, input UpdateInput) (*Itinerary, error)
	Delete(ctx context.Context, actor Actor, id string) error
	RemoveByMarket(ctx context.Context, marketID string) error
}

type service struct {
	store store
	now   func() time.Time
}

// NewService constructs an itinerary service instance.
func NewService(st store) (Service, error) {
	if st == nil {
		return nil, fmt.Errorf("kv store required")
	}
	return &service{store: st, now: time.Now}, nil
}

func (s *service) list(ctx context.Context, marketID string) ([]Itinerary, error) {
	raws, err := s.store.GetByPrefix(ctx, keyPrefix)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list itineraries")
	}
	itineraries := make([]Itinerary, 0, len(raws))
	for _, raw := range raws {
		var it Itinerary
		if err := json.Unmarshal(raw, &it); err != nil {
			continue
		}
		if marketID != "" && it.MarketID != marketID {
			continue
		}
		itineraries = append(itineraries, it)
	}
	return itineraries, nil
}

func (s *service) List(ctx context.Context, marketID string) ([]Itinerary, error) {
	itineraries, err := s.list(ctx, marketID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(itineraries, func(i, j int) bool {
		return itineraries[i].CreatedAt > itineraries[j].CreatedAt
	})
	return itineraries, nil
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateInput) (*Itinerary, error) {
	if len(input.Stops) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "At least one stop is required")
	}
	now := s.now().UTC().Format(time.RFC3339)
	it := Itinerary{
		ID:              uuid.NewString(),
		MarketID:        input.MarketID,
		Title:           input.Title,
		Description:     input.Description,
		Duration:        input.Duration,
		Stops:           input.Stops,
		CreatedByUserID: actor.ID,
		CreatedByName:   actor.Name,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Set(ctx, keyPrefix+it.ID, it); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save itinerary")
	}
	return &it, nil
}

func (s *service) Update(ctx context.Context, actor Actor, id string, input UpdateInput) (*Itinerary, error) {
	if input.Stops != nil && len(*input.Stops) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "At least one stop is required")
	}
	var updated Itinerary
	err := s.store.Update(ctx, keyPrefix+id, func(raw json.RawMessage) (any, error) {
		if raw == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "itinerary not found")
		}
		var it Itinerary
		if err := json.Unmarshal(raw, &it); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode itinerary")
		}
		if it.CreatedByUserID != actor.ID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you can only edit your own itineraries")
		}
		if input.Title != nil {
			it.Title = *input.Title
		}
		if input.Description != nil {
			it.Description = *input.Description
		}
		if input.Duration != nil {
			it.Duration = *input.Duration
		}
		if input.Stops != nil {
			it.Stops = *input.Stops
		}
		it.UpdatedAt = s.now().UTC().Format(time.RFC3339)
		updated = it
		return it, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *service) Delete(ctx context.Context, actor Actor, id string) error {
	var it Itinerary
	if err := s.store.Get(ctx, keyPrefix+id, &it); err != nil {
		if err == kv.ErrNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "itinerary not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load itinerary")
	}
	if it.CreatedByUserID != actor.ID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "you can only delete your own itineraries")
	}
	if err := s.store.Delete(ctx, keyPrefix+id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete itinerary")
	}
	return nil
}

// RemoveByMarket deletes every itinerary bound to the given market. Used by
// the market delete cascade.
func (s *service) RemoveByMarket(ctx context.Context, marketID string) error {
	itineraries, err := s.list(ctx, marketID)
	if err != nil {
		return err
	}
	if len(itineraries) == 0 {
		return nil
	}
	keys := make([]string, 0, len(itineraries))
	for _, it := range itineraries {
		keys = append(keys, keyPrefix+it.ID)
	}
	if err := s.store.Delete(ctx, keys...); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete itineraries")
	}
	return nil
}
