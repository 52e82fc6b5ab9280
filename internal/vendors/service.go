package vendors

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

const keyPrefix = "vendor:"

// Vendor is a stall or seller operating inside a market.
type Vendor struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Specialty       string   `json:"specialty"`
	MarketID        string   `json:"market_id"`
	MarketName      string   `json:"market_name"`
	Location        string   `json:"location"`
	Phone           string   `json:"phone"`
	WhatsApp        string   `json:"whatsapp"`
	Instagram       string   `json:"instagram"`
	Description     string   `json:"description"`
	Photo           string   `json:"photo"`
	Products        []string `json:"products"`
	Badges          []string `json:"badges"`
	CreatedByUserID string   `json:"created_by_user_id"`
	CreatedByName   string   `json:"created_by_name"`
	IsVerified      bool     `json:"is_verified"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

// CreateInput holds the validated payload to create a vendor. The market
// reference is free-form; no lookup against the markets namespace happens.
type CreateInput struct {
	Name        string
	Specialty   string
	MarketID    string
	MarketName  string
	Location    string
	Phone       string
	WhatsApp    string
	Instagram   string
	Description string
	Photo       string
	Products    []string
	Badges      []string
}

// UpdateInput holds optional mutation values. The market binding is fixed
// at creation and cannot be moved.
type UpdateInput struct {
	Name        *string
	Specialty   *string
	Location    *string
	Phone       *string
	WhatsApp    *string
	Instagram   *string
	Description *string
	Photo       *string
	Products    *[]string
	Badges      *[]string
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

// Service exposes vendor directory operations.
type Service interface {
	List(ctx context.Context, marketID string) ([]Vendor, error)
	Get(ctx context.Context, id string) (*Vendor, error)
	Create(ctx context.Context, actor Actor, input CreateInput) (*Vendor, error)
	Update(ctx context.Context, actor Actor, id string, input UpdateInput) (*Vendor, error)
	Delete(ctx context.Context, actor Actor, id string) error
}

type service struct {
	store store
	now   func() time.Time
}

// NewService constructs a vendor service instance.
func NewService(st store) (Service, error) {
	if st == nil {
		return nil, fmt.Errorf("kv store required")
	}
	return &service{store: st, now: time.Now}, nil
}

func (s *service) List(ctx context.Context, marketID string) ([]Vendor, error) {
	raws, err := s.store.GetByPrefix(ctx, keyPrefix)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list vendors")
	}
	vendors := make([]Vendor, 0, len(raws))
	for _, raw := range raws {
		var v Vendor
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		if marketID != "" && v.MarketID != marketID {
			continue
		}
		vendors = append(vendors, v)
	}
	sort.SliceStable(vendors, func(i, j int) bool {
		return vendors[i].CreatedAt > vendors[j].CreatedAt
	})
	return vendors, nil
}

func (s *service) Get(ctx context.Context, id string) (*Vendor, error) {
	var v Vendor
	if err := s.store.Get(ctx, keyPrefix+id, &v); err != nil {
		if err == kv.ErrNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load vendor")
	}
	return &v, nil
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateInput) (*Vendor, error) {
	now := s.now().UTC().Format(time.RFC3339)
	v := Vendor{
		ID:              uuid.NewString(),
		Name:            input.Name,
		Specialty:       input.Specialty,
		MarketID:        input.MarketID,
		MarketName:      input.MarketName,
		Location:        input.Location,
		Phone:           input.Phone,
		WhatsApp:        input.WhatsApp,
		Instagram:       input.Instagram,
		Description:     input.Description,
		Photo:           input.Photo,
		Products:        input.Products,
		Badges:          input.Badges,
		CreatedByUserID: actor.ID,
		CreatedByName:   actor.Name,
		IsVerified:      false,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if v.Products == nil {
		v.Products = []string{}
	}
	if v.Badges == nil {
		v.Badges = []string{}
	}
	if err := s.store.Set(ctx, keyPrefix+v.ID, v); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save vendor")
	}
	return &v, nil
}

func (s *service) Update(ctx context.Context, actor Actor, id string, input UpdateInput) (*Vendor, error) {
	var updated Vendor
	err := s.store.Update(ctx, keyPrefix+id, func(raw json.RawMessage) (any, error) {
		if raw == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		var v Vendor
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode vendor")
		}
		if v.CreatedByUserID != actor.ID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you can only edit your own vendors")
		}
		applyString(&v.Name, input.Name)
		applyString(&v.Specialty, input.Specialty)
		applyString(&v.Location, input.Location)
		applyString(&v.Phone, input.Phone)
		applyString(&v.WhatsApp, input.WhatsApp)
		applyString(&v.Instagram, input.Instagram)
		applyString(&v.Description, input.Description)
		applyString(&v.Photo, input.Photo)
		if input.Products != nil {
			v.Products = *input.Products
			if v.Products == nil {
				v.Products = []string{}
			}
		}
		if input.Badges != nil {
			v.Badges = *input.Badges
			if v.Badges == nil {
				v.Badges = []string{}
			}
		}
		v.UpdatedAt = s.now().UTC().Format(time.RFC3339)
		updated = v
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *service) Delete(ctx context.Context, actor Actor, id string) error {
	v, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if v.CreatedByUserID != actor.ID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "you can only delete your own vendors")
	}
	if err := s.store.Delete(ctx, keyPrefix+id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete vendor")
	}
	return nil
}

func applyString(target *string, value *string) {
	if value != nil {
		*target = *value
	}
}
