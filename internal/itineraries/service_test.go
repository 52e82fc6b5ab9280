package itineraries

import (
	"context"
	"encoding/json"
	"strings"
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

func (m *memStore) Get(_ context.Context, key string, dest any) error {
	raw, ok := m.data[key]
	if !ok {
		return kv.ErrNotFound
	}
	return json.Unmarshal(raw, dest)
}

func (m *memStore) Set(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *memStore) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memStore) GetByPrefix(_ context.Context, prefix string) ([]json.RawMessage, error) {
	var out []json.RawMessage
	for key, raw := range m.data {
		if strings.HasPrefix(key, prefix) {
			out = append(out, raw)
		}
	}
	return out, nil
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

func TestCreateRequiresAtLeastOneStop(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), Actor{ID: "user-1"}, CreateInput{
		MarketID:    "market-1",
		Title:       "Morning route",
		Description: "d",
	})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	it, err := svc.Create(context.Background(), Actor{ID: "user-1", Name: "Ana"}, CreateInput{
		MarketID:    "market-1",
		Title:       "Morning route",
		Description: "d",
		Stops:       []Stop{{Name: "Entrance", Location: "Gate A"}},
	})
	require.NoError(t, err)
	require.Equal(t, "user-1", it.CreatedByUserID)
	require.Len(t, it.Stops, 1)
}

func TestUpdateKeepsMarketAndChecksOwnership(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	actor := Actor{ID: "user-1", Name: "Ana"}

	created, err := svc.Create(ctx, actor, CreateInput{
		MarketID:    "market-1",
		Title:       "Morning route",
		Description: "d",
		Stops:       []Stop{{Name: "Entrance"}},
	})
	require.NoError(t, err)

	title := "Evening route"
	_, err = svc.Update(ctx, Actor{ID: "user-2"}, created.ID, UpdateInput{Title: &title})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeForbidden, appErr.Code())

	updated, err := svc.Update(ctx, actor, created.ID, UpdateInput{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "Evening route", updated.Title)
	require.Equal(t, "market-1", updated.MarketID)
}

func TestUpdateRejectsEmptyStops(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	actor := Actor{ID: "user-1", Name: "Ana"}

	created, err := svc.Create(ctx, actor, CreateInput{
		MarketID: "market-1", Title: "t", Description: "d",
		Stops: []Stop{{Name: "Entrance"}},
	})
	require.NoError(t, err)

	empty := []Stop{}
	_, err = svc.Update(ctx, actor, created.ID, UpdateInput{Stops: &empty})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestRemoveByMarketDeletesOnlyMatching(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	actor := Actor{ID: "user-1", Name: "Ana"}

	_, err := svc.Create(ctx, actor, CreateInput{MarketID: "market-1", Title: "a", Description: "d", Stops: []Stop{{Name: "s"}}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, actor, CreateInput{MarketID: "market-1", Title: "b", Description: "d", Stops: []Stop{{Name: "s"}}})
	require.NoError(t, err)
	survivor, err := svc.Create(ctx, actor, CreateInput{MarketID: "market-2", Title: "c", Description: "d", Stops: []Stop{{Name: "s"}}})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveByMarket(ctx, "market-1"))

	remaining, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, survivor.ID, remaining[0].ID)
}

func TestRemoveByMarketNoMatchesIsNoop(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.RemoveByMarket(context.Background(), "market-1"))
}

func TestDeleteChecksOwnership(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, Actor{ID: "user-1", Name: "Ana"}, CreateInput{
		MarketID: "market-1", Title: "t", Description: "d",
		Stops: []Stop{{Name: "Entrance"}},
	})
	require.NoError(t, err)

	err = svc.Delete(ctx, Actor{ID: "user-2"}, created.ID)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeForbidden, appErr.Code())

	require.NoError(t, svc.Delete(ctx, Actor{ID: "user-1"}, created.ID))

	remaining, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Empty(t, remaining)
}
