package reviews

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

const (
	keyPrefix = "review:"

	TypeMarket = "market"
	TypeVendor = "vendor"

	avatarURLFormat = "https://api.dicebear.com/7.x/avataaars/svg?seed=%s"
)

// Review is a user-submitted rating for a market or a vendor.
type Review struct {
	ID           string   `json:"id"`
	UserID       string   `json:"user_id"`
	Author       string   `json:"author"`
	AuthorAvatar string   `json:"authorAvatar"`
	Market       string   `json:"market"`
	Rating       int      `json:"rating"`
	Comment      string   `json:"comment"`
	Photos       []string `json:"photos"`
	Date         string   `json:"date"`
	Helpful      int      `json:"helpful"`
	HelpfulBy    []string `json:"helpfulBy"`
	ReviewType   string   `json:"review_type"`
	VendorID     *string  `json:"vendor_id"`
	VendorName   *string  `json:"vendor_name"`
}

// CreateInput holds the payload to create a review.
type CreateInput struct {
	Market     string
	Rating     int
	Comment    string
	Photos     []string
	ReviewType string
	VendorID   string
	VendorName string
}

// UpdateInput allows re-rating an existing review. Only the rating and the
// comment are mutable; the review target is fixed.
type UpdateInput struct {
	Rating  *int
	Comment *string
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

// Service exposes review operations.
type Service interface {
	List(ctx context.Context, marketID string) ([]Review, error)
	Create(ctx context.Context, actor Actor, input CreateInput) (*Review, error)
	Update(ctx context.Context, actor Actor, id string, input UpdateInput) (*Review, error)
	ToggleHelpful(ctx context.Context, userID, id string) (*Review, error)
	Delete(ctx context.Context, actor Actor, id string) error
}

type service struct {
	store store
	now   func() time.Time
}

// NewService constructs a review service instance.
func NewService(st store) (Service, error) {
	if st == nil {
		return nil, fmt.Errorf("kv store required")
	}
	return &service{store: st, now: time.Now}, nil
}

func (s *service) List(ctx context.Context, marketID string) ([]Review, error) {
	raws, err := s.store.GetByPrefix(ctx, keyPrefix)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}
	reviews := make([]Review, 0, len(raws))
	for _, raw := range raws {
		var r Review
		if err := json.Unmarshal(raw, &r); err != nil {
			continue
		}
		if marketID != "" && r.Market != marketID {
			continue
		}
		reviews = append(reviews, r)
	}
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].Date > reviews[j].Date
	})
	return reviews, nil
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateInput) (*Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Rating must be between 1 and 5")
	}
	reviewType := input.ReviewType
	if reviewType == "" {
		reviewType = TypeMarket
	}
	if reviewType == TypeVendor && input.VendorID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Vendor ID is required for vendor reviews")
	}
	if reviewType == TypeMarket && input.Market == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Market is required for market reviews")
	}

	r := Review{
		ID:           uuid.NewString(),
		UserID:       actor.ID,
		Author:       actor.Name,
		AuthorAvatar: fmt.Sprintf(avatarURLFormat, actor.ID),
		Market:       input.Market,
		Rating:       input.Rating,
		Comment:      input.Comment,
		Photos:       input.Photos,
		Date:         s.now().UTC().Format(time.RFC3339),
		Helpful:      0,
		HelpfulBy:    []string{},
		ReviewType:   reviewType,
	}
	if r.Photos == nil {
		r.Photos = []string{}
	}
	if input.VendorID != "" {
		vendorID := input.VendorID
		r.VendorID = &vendorID
	}
	if input.VendorName != "" {
		vendorName := input.VendorName
		r.VendorName = &vendorName
	}
	if err := s.store.Set(ctx, keyPrefix+r.ID, r); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save review")
	}
	return &r, nil
}

func (s *service) Update(ctx context.Context, actor Actor, id string, input UpdateInput) (*Review, error) {
	if input.Rating == nil || *input.Rating == 0 || input.Comment == nil || *input.Comment == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Rating and comment are required")
	}
	if *input.Rating < 1 || *input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Rating must be between 1 and 5")
	}
	var updated Review
	err := s.store.Update(ctx, keyPrefix+id, func(raw json.RawMessage) (any, error) {
		if raw == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		var r Review
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode review")
		}
		if r.UserID != actor.ID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you can only edit your own reviews")
		}
		r.Rating = *input.Rating
		r.Comment = *input.Comment
		updated = r
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ToggleHelpful flips the caller's helpful mark on the review. The count
// always equals the number of distinct markers and never goes negative.
func (s *service) ToggleHelpful(ctx context.Context, userID, id string) (*Review, error) {
	var updated Review
	err := s.store.Update(ctx, keyPrefix+id, func(raw json.RawMessage) (any, error) {
		if raw == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		var r Review
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode review")
		}
		if r.HelpfulBy == nil {
			r.HelpfulBy = []string{}
		}
		marked := false
		for _, uid := range r.HelpfulBy {
			if uid == userID {
				marked = true
				break
			}
		}
		if marked {
			kept := make([]string, 0, len(r.HelpfulBy))
			for _, uid := range r.HelpfulBy {
				if uid != userID {
					kept = append(kept, uid)
				}
			}
			r.HelpfulBy = kept
			if r.Helpful > 0 {
				r.Helpful--
			}
		} else {
			r.HelpfulBy = append(r.HelpfulBy, userID)
			r.Helpful++
		}
		updated = r
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *service) Delete(ctx context.Context, actor Actor, id string) error {
	var r Review
	if err := s.store.Get(ctx, keyPrefix+id, &r); err != nil {
		if err == kv.ErrNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load review")
	}
	if r.UserID != actor.ID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "you can only delete your own reviews")
	}
	if err := s.store.Delete(ctx, keyPrefix+id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete review")
	}
	return nil
}
