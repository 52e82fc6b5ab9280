package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/mercadolocal/mercados-backend/pkg/errors"
	"github.com/mercadolocal/mercados-backend/pkg/identity"
)

type stubProvider struct {
	createdEmail    string
	createdPassword string
	createdName     string
	createErr       error

	signInEmail string
	signInErr   error

	updatedUserID string
	updates       identity.UserUpdates
	updateErr     error

	user    *identity.User
	session *identity.Session
}

func (s *stubProvider) AdminCreateUser(_ context.Context, params identity.CreateUserParams) (*identity.User, error) {
	s.createdEmail = params.Email
	s.createdPassword = params.Password
	s.createdName = params.Name
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.user, nil
}

func (s *stubProvider) SignInWithPassword(_ context.Context, email, _ string) (*identity.Session, error) {
	s.signInEmail = email
	if s.signInErr != nil {
		return nil, s.signInErr
	}
	return s.session, nil
}

func (s *stubProvider) AdminUpdateUser(_ context.Context, userID string, updates identity.UserUpdates) (*identity.User, error) {
	s.updatedUserID = userID
	s.updates = updates
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return s.user, nil
}

func testUser(id, email, name string) *identity.User {
	u := &identity.User{ID: id, Email: email, CreatedAt: "2024-01-01T00:00:00Z"}
	u.UserMetadata.Name = name
	return u
}

func TestSignupCreatesThenSignsIn(t *testing.T) {
	provider := &stubProvider{
		user:    testUser("user-1", "ana@example.com", "Ana"),
		session: &identity.Session{AccessToken: "token-1", RefreshToken: "refresh-1"},
	}
	svc, err := NewService(provider)
	require.NoError(t, err)

	result, err := svc.Signup(context.Background(), SignupInput{
		Name:     "Ana",
		Email:    "ana@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", provider.createdEmail)
	require.Equal(t, "hunter22", provider.createdPassword)
	require.Equal(t, "Ana", provider.createdName)
	require.Equal(t, "ana@example.com", provider.signInEmail)
	require.Equal(t, "user-1", result.User.ID)
	require.Equal(t, "Ana", result.User.Name)
	require.Equal(t, "token-1", result.Session.AccessToken)
}

func TestSignupSurfacesProviderError(t *testing.T) {
	provider := &stubProvider{
		createErr: pkgerrors.New(pkgerrors.CodeValidation, "A user with this email address has already been registered"),
	}
	svc, err := NewService(provider)
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), SignupInput{Name: "Ana", Email: "ana@example.com", Password: "p"})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	require.Equal(t, "A user with this email address has already been registered", appErr.Message())
	require.Empty(t, provider.signInEmail)
}

func TestUpdateProfileSkipsUnchangedEmail(t *testing.T) {
	provider := &stubProvider{user: testUser("user-1", "ana@example.com", "Ana Maria")}
	svc, err := NewService(provider)
	require.NoError(t, err)

	current := Profile{ID: "user-1", Email: "ana@example.com", Name: "Ana", CreatedAt: "2024-01-01T00:00:00Z"}
	name := "Ana Maria"
	email := "ana@example.com" // unchanged
	profile, err := svc.UpdateProfile(context.Background(), current, UpdateProfileInput{Name: &name, Email: &email})
	require.NoError(t, err)
	require.Nil(t, provider.updates.Email)
	require.NotNil(t, provider.updates.Name)
	require.Equal(t, "Ana Maria", profile.Name)
}

func TestUpdateProfileForwardsChangedEmail(t *testing.T) {
	provider := &stubProvider{user: testUser("user-1", "new@example.com", "Ana")}
	svc, err := NewService(provider)
	require.NoError(t, err)

	current := Profile{ID: "user-1", Email: "ana@example.com", Name: "Ana"}
	email := "new@example.com"
	profile, err := svc.UpdateProfile(context.Background(), current, UpdateProfileInput{Email: &email})
	require.NoError(t, err)
	require.Equal(t, "user-1", provider.updatedUserID)
	require.NotNil(t, provider.updates.Email)
	require.Equal(t, "new@example.com", *provider.updates.Email)
	require.Equal(t, "new@example.com", profile.Email)
}

func TestUpdateProfileUnchangedEmailOnlyIsNoop(t *testing.T) {
	provider := &stubProvider{}
	svc, err := NewService(provider)
	require.NoError(t, err)

	current := Profile{ID: "user-1", Email: "ana@example.com", Name: "Ana", CreatedAt: "2024-01-01T00:00:00Z"}
	email := "ana@example.com"
	profile, err := svc.UpdateProfile(context.Background(), current, UpdateProfileInput{Email: &email})
	require.NoError(t, err)
	require.Equal(t, current, *profile)
	require.Empty(t, provider.updatedUserID)
}

func TestUpdateProfileRequiresAtLeastOneField(t *testing.T) {
	provider := &stubProvider{}
	svc, err := NewService(provider)
	require.NoError(t, err)

	_, err = svc.UpdateProfile(context.Background(), Profile{ID: "user-1"}, UpdateProfileInput{})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}
