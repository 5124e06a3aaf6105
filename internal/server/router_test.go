package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/linkypi/PostSharp-1.5-sub005/internal/store"
)

var runA = uuid.MustParse("3f1d0c6e-2a7b-4c1e-9d8f-5b6a7c8d9e01")

// memStore is an in-memory store.Store
type memStore struct {
	snaps map[uuid.UUID]*store.Snapshot
	err   error
	panic bool
}

func newMemStore() *memStore {
	return &memStore{snaps: map[uuid.UUID]*store.Snapshot{
		runA: {
			Run: store.Run{ID: runA, Assembly: "Shop", Module: "Shop.dll",
				StartedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), Bindings: 2},
			Bindings: []store.BindingRecord{
				{Target: "T:Shop.Orders", Kind: "type", Annotation: "Aspects.Trace", InstanceID: 1, Priority: 257, DeclaredOn: "T:Shop.Orders", Storage: "concrete"},
				{Target: "M:Shop.Orders.Save()", Kind: "method", Annotation: "Aspects.Trace", InstanceID: 1, Priority: 256, DeclaredOn: "T:Shop.Orders", Storage: "transient"},
			},
		},
	}}
}

func (m *memStore) SaveRun(_ context.Context, s *store.Snapshot) error {
	m.snaps[s.Run.ID] = s
	return nil
}

func (m *memStore) ListRuns(context.Context) ([]store.Run, error) {
	if m.panic {
		panic("corrupt index")
	}
	if m.err != nil {
		return nil, m.err
	}
	var out []store.Run
	for _, s := range m.snaps {
		out = append(out, s.Run)
	}
	return out, nil
}

func (m *memStore) GetRun(_ context.Context, id uuid.UUID) (*store.Snapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.snaps[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s, nil
}

func (m *memStore) FindBindings(ctx context.Context, id uuid.UUID, target string) ([]store.BindingRecord, error) {
	s, err := m.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	var out []store.BindingRecord
	for _, b := range s.Bindings {
		if target == "" || b.Target == target {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }

func serve(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	rec := serve(t, NewRouter(newMemStore(), RouterOptions{}), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	NewRouter(newMemStore(), RouterOptions{}).ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestListRuns(t *testing.T) {
	rec := serve(t, NewRouter(newMemStore(), RouterOptions{}), "/runs")
	require.Equal(t, http.StatusOK, rec.Code)

	runs := decode[[]store.Run](t, rec)
	require.Len(t, runs, 1)
	assert.Equal(t, runA, runs[0].ID)
	assert.Equal(t, "Shop.dll", runs[0].Module)
}

func TestListRunsEmptyIsArray(t *testing.T) {
	rec := serve(t, NewRouter(&memStore{snaps: map[uuid.UUID]*store.Snapshot{}}, RouterOptions{}), "/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestGetRun(t *testing.T) {
	h := NewRouter(newMemStore(), RouterOptions{})

	rec := serve(t, h, "/runs/"+runA.String())
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[store.Snapshot](t, rec)
	assert.Len(t, snap.Bindings, 2)

	rec = serve(t, h, "/runs/"+uuid.NewString())
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[ErrorResponse](t, rec).Code)

	rec = serve(t, h, "/runs/latest")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Message, `invalid run id "latest"`)
}

func TestFindBindings(t *testing.T) {
	h := NewRouter(newMemStore(), RouterOptions{})

	rec := serve(t, h, "/runs/"+runA.String()+"/bindings?target=M:Shop.Orders.Save()")
	require.Equal(t, http.StatusOK, rec.Code)
	bindings := decode[[]store.BindingRecord](t, rec)
	require.Len(t, bindings, 1)
	assert.Equal(t, "transient", bindings[0].Storage)

	rec = serve(t, h, "/runs/"+runA.String()+"/bindings")
	assert.Len(t, decode[[]store.BindingRecord](t, rec), 2)

	rec = serve(t, h, "/runs/"+runA.String()+"/bindings?target=F:Shop.Orders.id")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestStoreFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	st := newMemStore()
	st.err = errors.New("connection reset")

	rec := serve(t, NewRouter(st, RouterOptions{Logger: zap.New(core)}), "/runs")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")

	entries := logs.FilterMessage("store query failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "connection reset", entries[0].ContextMap()["error"])
}

func TestPanicIsRecovered(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	st := newMemStore()
	st.panic = true

	rec := serve(t, NewRouter(st, RouterOptions{Logger: zap.New(core)}), "/runs")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_server_error", decode[ErrorResponse](t, rec).Code)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestUnknownRoute(t *testing.T) {
	h := NewRouter(newMemStore(), RouterOptions{})

	rec := serve(t, h, "/bindings")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodDelete, "/runs", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "multicast_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Add(3)

	rec := serve(t, NewRouter(newMemStore(), RouterOptions{Gatherer: reg}), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "multicast_test_total 3")
}

func TestRequestsAreLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	serve(t, NewRouter(newMemStore(), RouterOptions{Logger: zap.New(core)}), "/healthz")

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/healthz", fields["path"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
}
