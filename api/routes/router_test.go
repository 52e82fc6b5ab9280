package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	accountsvc "github.com/mercadolocal/mercados-backend/internal/accounts"
	favoritesvc "github.com/mercadolocal/mercados-backend/internal/favorites"
	itinerarysvc "github.com/mercadolocal/mercados-backend/internal/itineraries"
	marketsvc "github.com/mercadolocal/mercados-backend/internal/markets"
	reviewsvc "github.com/mercadolocal/mercados-backend/internal/reviews"
	vendorsvc "github.com/mercadolocal/mercados-backend/internal/vendors"
	pkgerrors "github.com/mercadolocal/mercados-backend/pkg/errors"
	"github.com/mercadolocal/mercados-backend/pkg/identity"
)

type stubVerifier struct {
	user *identity.User
}

func (s *stubVerifier) Verify(_ context.Context, token string) (*identity.User, error) {
	if s.user == nil || token != "valid-token" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token")
	}
	return s.user, nil
}

type stubMarkets struct{}

func (stubMarkets) List(context.Context) ([]marketsvc.Market, error) {
	return []marketsvc.Market{}, nil
}
func (stubMarkets) ListByOwner(context.Context, string) ([]marketsvc.Market, error) {
	return []marketsvc.Market{}, nil
}
func (stubMarkets) Get(context.Context, string) (*marketsvc.Market, error) {
	return &marketsvc.Market{}, nil
}
func (stubMarkets) Create(context.Context, marketsvc.Actor, marketsvc.CreateInput) (*marketsvc.Market, error) {
	return &marketsvc.Market{}, nil
}
func (stubMarkets) Update(context.Context, marketsvc.Actor, string, marketsvc.UpdateInput) (*marketsvc.Market, error) {
	return &marketsvc.Market{}, nil
}
func (stubMarkets) Delete(context.Context, marketsvc.Actor, string) error { return nil }

type stubVendors struct{}

func (stubVendors) List(context.Context, string) ([]vendorsvc.Vendor, error) {
	return []vendorsvc.Vendor{}, nil
}
func (stubVendors) Get(context.Context, string) (*vendorsvc.Vendor, error) {
	return &vendorsvc.Vendor{}, nil
}
func (stubVendors) Create(context.Context, vendorsvc.Actor, vendorsvc.CreateInput) (*vendorsvc.Vendor, error) {
	return &vendorsvc.Vendor{}, nil
}
func (stubVendors) Update(context.Context, vendorsvc.Actor, string, vendorsvc.UpdateInput) (*vendorsvc.Vendor, error) {
	return &vendorsvc.Vendor{}, nil
}
func (stubVendors) Delete(context.Context, vendorsvc.Actor, string) error { return nil }

type stubReviews struct{}

func (stubReviews) List(context.Context, string) ([]reviewsvc.Review, error) {
	return []reviewsvc.Review{}, nil
}
func (stubReviews) Create(context.Context, reviewsvc.Actor, reviewsvc.CreateInput) (*reviewsvc.Review, error) {
	return &reviewsvc.Review{}, nil
}
func (stubReviews) Update(context.Context, reviewsvc.Actor, string, reviewsvc.UpdateInput) (*reviewsvc.Review, error) {
	return &reviewsvc.Review{}, nil
}
func (stubReviews) ToggleHelpful(context.Context, string, string) (*reviewsvc.Review, error) {
	return &reviewsvc.Review{}, nil
}
func (stubReviews) Delete(context.Context, reviewsvc.Actor, string) error { return nil }

type stubItineraries struct{}

func (stubItineraries) List(context.Context, string) ([]itinerarysvc.Itinerary, error) {
	return []itinerarysvc.Itinerary{}, nil
}
func (stubItineraries) Create(context.Context, itinerarysvc.Actor, itinerarysvc.CreateInput) (*itinerarysvc.Itinerary, error) {
	return &itinerarysvc.Itinerary{}, nil
}
func (stubItineraries) Update(context.Context, itinerarysvc.Actor, string, itinerarysvc.UpdateInput) (*itinerarysvc.Itinerary, error) {
	return &itinerarysvc.Itinerary{}, nil
}
func (stubItineraries) Delete(context.Context, itinerarysvc.Actor, string) error { return nil }
func (stubItineraries) RemoveByMarket(context.Context, string) error             { return nil }

type stubFavorites struct{}

func (stubFavorites) Get(context.Context, string) (*favoritesvc.Favorites, error) {
	return &favoritesvc.Favorites{Markets: []favoritesvc.Item{}, Vendors: []favoritesvc.Item{}}, nil
}
func (stubFavorites) Add(context.Context, string, string, string, string) (*favoritesvc.Favorites, error) {
	return &favoritesvc.Favorites{}, nil
}
func (stubFavorites) Remove(context.Context, string, string, string) (*favoritesvc.Favorites, error) {
	return &favoritesvc.Favorites{}, nil
}

type stubAccounts struct{}

func (stubAccounts) Signup(context.Context, accountsvc.SignupInput) (*accountsvc.SignupResult, error) {
	return &accountsvc.SignupResult{}, nil
}
func (stubAccounts) UpdateProfile(context.Context, accountsvc.Profile, accountsvc.UpdateProfileInput) (*accountsvc.Profile, error) {
	return &accountsvc.Profile{}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	user := &identity.User{ID: "user-1", Email: "ana@example.com"}
	return NewRouter(Dependencies{
		Verifier:    &stubVerifier{user: user},
		Accounts:    stubAccounts{},
		Markets:     stubMarkets{},
		Vendors:     stubVendors{},
		Reviews:     stubReviews{},
		Itineraries: stubItineraries{},
		Favorites:   stubFavorites{},
	})
}

func TestPublicReadsRequireBearerPresence(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/markets", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/markets", nil)
	req.Header.Set("Authorization", "Bearer anon-key")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMutationsRequireVerifiedToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/markets/m1", nil)
	req.Header.Set("Authorization", "Bearer anon-key")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/markets/m1", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMyMarketsIsAuthenticated(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/markets/my", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthIsOpen(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
