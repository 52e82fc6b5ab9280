package favorites

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/mercadolocal/mercados-backend/pkg/errors"
	"github.com/mercadolocal/mercados-backend/pkg/kv"
)

type memStore struct {
	data map[string]json.RawMessage
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]json.RawMessage)}
}

func (m *memStore) GetRaw(_ context.Context, key string) (json.RawMessage, error) {
	raw, ok := m.data[key]
	if !ok {
		return nil, kv.ErrNotFound
	}
	return raw, nil
}

func (m *memStore) Update(_ context.Context, key string, fn func(raw json.RawMessage) (any, error)) error {
	value, err := fn(m.data[key])
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func newTestService(t *testing.T) (Service, *memStore) {
	t.Helper()
	st := newMemStore()
	svc, err := NewService(st)
	require.NoError(t, err)
	return svc, st
}

func TestGetMissingDocReturnsEmptySet(t *testing.T) {
	svc, st := newTestService(t)

	favorites, err := svc.Get(context.Background(), "user-1")
	require.NoError(t, err)
	require.Empty(t, favorites.Markets)
	require.Empty(t, favorites.Vendors)
	require.NotNil(t, favorites.Markets)
	require.NotNil(t, favorites.Vendors)

	// Read-side normalization must not write anything back.
	require.Empty(t, st.data)
}

func TestGetNormalizesCorruptDocWithoutPersisting(t *testing.T) {
	svc, st := newTestService(t)
	st.data["favorites:user-1"] = json.RawMessage(`"not an object"`)

	favorites, err := svc.Get(context.Background(), "user-1")
	require.NoError(t, err)
	require.Empty(t, favorites.Markets)
	require.Empty(t, favorites.Vendors)
	require.JSONEq(t, `"not an object"`, string(st.data["favorites:user-1"]))
}

func TestGetToleratesUnparseableDoc(t *testing.T) {
	svc, st := newTestService(t)
	st.data["favorites:user-1"] = json.RawMessage(`{truncated`)

	favorites, err := svc.Get(context.Background(), "user-1")
	require.NoError(t, err)
	require.Empty(t, favorites.Markets)
	require.Empty(t, favorites.Vendors)
	require.NotNil(t, favorites.Markets)
	require.NotNil(t, favorites.Vendors)
	require.Equal(t, `{truncated`, string(st.data["favorites:user-1"]))
}

func TestAddIsIdempotentByID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Add(ctx, "user-1", TypeMarket, "market-1", "Mercado Central")
	require.NoError(t, err)
	require.Len(t, first.Markets, 1)
	require.Equal(t, "Mercado Central", first.Markets[0].Name)
	require.NotEmpty(t, first.Markets[0].AddedAt)

	second, err := svc.Add(ctx, "user-1", TypeMarket, "market-1", "Renamed")
	require.NoError(t, err)
	require.Len(t, second.Markets, 1)
	require.Equal(t, "Mercado Central", second.Markets[0].Name)
}

func TestAddKeepsMarketsAndVendorsSeparate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, "user-1", TypeMarket, "market-1", "Mercado Central")
	require.NoError(t, err)
	favorites, err := svc.Add(ctx, "user-1", TypeVendor, "vendor-1", "Frutas Don Pepe")
	require.NoError(t, err)
	require.Len(t, favorites.Markets, 1)
	require.Len(t, favorites.Vendors, 1)
}

func TestAddRejectsUnknownType(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Add(context.Background(), "user-1", "itinerary", "x", "y")
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestRemoveIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, "user-1", TypeVendor, "vendor-1", "Frutas Don Pepe")
	require.NoError(t, err)

	favorites, err := svc.Remove(ctx, "user-1", TypeVendor, "vendor-1")
	require.NoError(t, err)
	require.Empty(t, favorites.Vendors)

	again, err := svc.Remove(ctx, "user-1", TypeVendor, "vendor-1")
	require.NoError(t, err)
	require.Empty(t, again.Vendors)
}

func TestRemoveRejectsUnknownType(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Remove(context.Background(), "user-1", "itinerary", "x")
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}
