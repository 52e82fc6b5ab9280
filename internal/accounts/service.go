package accounts

import (
	"context"
	"fmt"

	pkgerrors "github.com/mercadolocal/mercados-backend/pkg/errors"
	"github.com/mercadolocal/mercados-backend/pkg/identity"
)

// Account is the public shape of an identity-provider user.
type Account struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Profile is the authenticated user's own view of their account.
type Profile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// SignupInput holds the validated payload to register a user.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// SignupResult bundles the created account with a live session so the
// client can proceed without a separate login round trip.
type SignupResult struct {
	User    Account           `json:"user"`
	Session *identity.Session `json:"session"`
}

// UpdateProfileInput holds optional account mutations.
type UpdateProfileInput struct {
	Name     *string
	Email    *string
	Password *string
}

type identityAdmin interface {
	AdminCreateUser(ctx context.Context, params identity.CreateUserParams) (*identity.User, error)
	SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error)
	AdminUpdateUser(ctx context.Context, userID string, updates identity.UserUpdates) (*identity.User, error)
}

// Service bridges account operations to the identity provider.
type Service interface {
	Signup(ctx context.Context, input SignupInput) (*SignupResult, error)
	UpdateProfile(ctx context.Context, current Profile, input UpdateProfileInput) (*Profile, error)
}

type service struct {
	provider identityAdmin
}

// NewService constructs an accounts service instance.
func NewService(provider identityAdmin) (Service, error) {
	if provider == nil {
		return nil, fmt.Errorf("identity provider required")
	}
	return &service{provider: provider}, nil
}

// Signup registers the user with a pre-confirmed email and signs them in.
func (s *service) Signup(ctx context.Context, input SignupInput) (*SignupResult, error) {
	user, err := s.provider.AdminCreateUser(ctx, identity.CreateUserParams{
		Email:    input.Email,
		Password: input.Password,
		Name:     input.Name,
	})
	if err != nil {
		return nil, err
	}

	session, err := s.provider.SignInWithPassword(ctx, input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	return &SignupResult{
		User: Account{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.DisplayName(),
		},
		Session: session,
	}, nil
}

// UpdateProfile forwards the requested changes to the identity provider.
// The email is only forwarded when it actually changes, so re-submitting
// the current address does not trigger provider-side re-verification.
func (s *service) UpdateProfile(ctx context.Context, current Profile, input UpdateProfileInput) (*Profile, error) {
	updates := identity.UserUpdates{
		Name:     input.Name,
		Password: input.Password,
	}
	if input.Email != nil && *input.Email != current.Email {
		updates.Email = input.Email
	}
	if updates.Name == nil && updates.Email == nil && updates.Password == nil {
		if input.Email != nil {
			// Same-address email update is a no-op, not an error.
			return &current, nil
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "At least one field is required")
	}

	user, err := s.provider.AdminUpdateUser(ctx, current.ID, updates)
	if err != nil {
		return nil, err
	}

	profile := Profile{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.DisplayName(),
		CreatedAt: user.CreatedAt,
	}
	if profile.CreatedAt == "" {
		profile.CreatedAt = current.CreatedAt
	}
	return &profile, nil
}
