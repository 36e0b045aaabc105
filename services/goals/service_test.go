package goals

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fittrack/api"
	"fittrack/services/tokenstore"
)

func newTestService(t *testing.T, handler http.Handler) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store, err := tokenstore.NewStore(afero.NewMemMapFs(), "/state")
	require.NoError(t, err)
	require.NoError(t, store.Set("tok", time.Time{}))

	pair := api.NewPair(server.URL, store, api.Options{Timeout: 5 * time.Second})
	return NewService(pair.Request)
}

func TestList(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/goals/", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"id": 1, "title": "run 100km", "target_value": 100, "current_value": 42.5},
			},
		})
	}))

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "run 100km", list[0].Title)
	assert.Equal(t, 42.5, list[0].CurrentValue)
}

func TestListRetriesTransientFailures(t *testing.T) {
	var attempts int64
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"results": []interface{}{}})
	}))

	_, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt64(&attempts))
}

func TestCreate(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "bench 100kg", body["title"])
		assert.EqualValues(t, 100, body["target_value"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 2, "title": "bench 100kg"})
	}))

	goal, err := svc.Create(context.Background(), Fields{Title: "bench 100kg", TargetValue: 100})
	require.NoError(t, err)
	assert.Equal(t, 2, goal.ID)
}

func TestProgress(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/goals/2/", r.URL.Path)

		var body map[string]float64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 87.5, body["current_value"])

		json.NewEncoder(w).Encode(map[string]interface{}{"id": 2, "current_value": 87.5})
	}))

	goal, err := svc.Progress(context.Background(), 2, 87.5)
	require.NoError(t, err)
	assert.Equal(t, 87.5, goal.CurrentValue)
}

func TestDeleteNotFound(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	err := svc.Delete(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
}
