package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"

	"fittrack/services/tokenstore"
)

// newTestStore creates an in-memory token store seeded with token.
func newTestStore(t *testing.T, token string, refreshEligibleAt time.Time) *tokenstore.Store {
	t.Helper()
	store, err := tokenstore.NewStore(afero.NewMemMapFs(), "/state")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if token != "" {
		if err := store.Set(token, refreshEligibleAt); err != nil {
			t.Fatalf("failed to seed store: %v", err)
		}
	}
	return store
}

func newTestPair(serverURL string, store *tokenstore.Store) *Pair {
	return NewPair(serverURL, store, Options{Timeout: 5 * time.Second})
}

func TestBearerHeaderInjected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer abc" {
			t.Errorf("expected Authorization %q, got %q", "Bearer abc", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header")
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	store := newTestStore(t, "abc", time.Time{})
	pair := newTestPair(server.URL, store)

	if err := pair.Request.Get(context.Background(), "/workouts/", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNoTokenNoAuthorizationHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("expected no Authorization header, got %q", got)
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	store := newTestStore(t, "", time.Time{})
	pair := newTestPair(server.URL, store)

	if err := pair.Request.Get(context.Background(), "/posts/", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// A 401 triggers one refresh and one replay; the caller only ever sees the
// replayed result carrying the fresh token.
func TestRefreshAndReplayOn401(t *testing.T) {
	var refreshCalls int64
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&refreshCalls, 1)
		json.NewEncoder(w).Encode(map[string]string{"token": "tok2"})
	})
	mux.HandleFunc("/auth/user/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]int{"id": 1})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := newTestStore(t, "expired", time.Time{})
	pair := newTestPair(server.URL, store)

	var out struct {
		ID int `json:"id"`
	}
	if err := pair.Session.Get(context.Background(), "/auth/user/", &out); err != nil {
		t.Fatalf("expected transparent retry, got %v", err)
	}
	if out.ID != 1 {
		t.Errorf("expected id 1, got %d", out.ID)
	}
	if n := atomic.LoadInt64(&refreshCalls); n != 1 {
		t.Errorf("expected exactly 1 refresh call, got %d", n)
	}
	if token, _ := store.Token(); token != "tok2" {
		t.Errorf("expected refreshed token persisted, got %q", token)
	}
}

// Concurrent 401s collapse onto a single in-flight refresh.
func TestConcurrentRefreshCollapses(t *testing.T) {
	var refreshCalls int64
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&refreshCalls, 1)
		time.Sleep(100 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]string{"token": "fresh"})
	})
	mux.HandleFunc("/workouts/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"results":[]}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := newTestStore(t, "expired", time.Time{})
	pair := newTestPair(server.URL, store)

	const concurrent = 8
	errs := make([]error, concurrent)
	var wg sync.WaitGroup
	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = pair.Request.Get(context.Background(), "/workouts/", nil)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("request %d failed: %v", i, err)
		}
	}
	if n := atomic.LoadInt64(&refreshCalls); n != 1 {
		t.Errorf("expected 1 collapsed refresh call, got %d", n)
	}
}

// A retried request that is rejected again propagates the failure instead
// of triggering a second refresh.
func TestRetriedRequestNeverRefreshesAgain(t *testing.T) {
	var refreshCalls int64
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&refreshCalls, 1)
		json.NewEncoder(w).Encode(map[string]string{"token": "fresh"})
	})
	mux.HandleFunc("/goals/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := newTestStore(t, "rejected", time.Time{})
	pair := newTestPair(server.URL, store)

	err := pair.Request.Get(context.Background(), "/goals/", nil)
	if !IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if n := atomic.LoadInt64(&refreshCalls); n != 1 {
		t.Errorf("expected exactly 1 refresh attempt, got %d", n)
	}
}

// When the refresh itself fails, the token store is cleared, the expired
// hook fires, and the caller receives the original 401.
func TestRefreshFailureClearsAndSignals(t *testing.T) {
	var expired int64
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/auth/user/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := newTestStore(t, "expired", time.Time{})
	pair := newTestPair(server.URL, store)
	pair.SetOnSessionExpired(func() { atomic.AddInt64(&expired, 1) })

	err := pair.Session.Get(context.Background(), "/auth/user/", nil)
	if !IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if _, ok := store.Token(); ok {
		t.Error("expected token cleared after failed refresh")
	}
	if n := atomic.LoadInt64(&expired); n != 1 {
		t.Errorf("expected expired hook fired once, got %d", n)
	}
}

// A due eligibility timestamp triggers a refresh before the request is
// sent, and the request carries the fresh token.
func TestProactiveRefreshWhenDue(t *testing.T) {
	var refreshCalls int64
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&refreshCalls, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{"token": "fresh", "expires_in": 86400})
	})
	mux.HandleFunc("/profiles/7/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]int{"id": 7})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := newTestStore(t, "stale", time.Now().Add(-time.Minute))
	pair := newTestPair(server.URL, store)

	if err := pair.Request.Get(context.Background(), "/profiles/7/", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := atomic.LoadInt64(&refreshCalls); n != 1 {
		t.Errorf("expected 1 proactive refresh, got %d", n)
	}
	if store.IsRefreshDue() {
		t.Error("expected a fresh eligibility timestamp after proactive refresh")
	}
}

// A failing proactive refresh signals the session but still lets the
// original request go out and succeed or fail on its own.
func TestProactiveRefreshFailureStillSendsRequest(t *testing.T) {
	var expired int64
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/posts/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := newTestStore(t, "stale", time.Now().Add(-time.Minute))
	pair := newTestPair(server.URL, store)
	pair.SetOnSessionExpired(func() { atomic.AddInt64(&expired, 1) })

	if err := pair.Request.Get(context.Background(), "/posts/", nil); err != nil {
		t.Fatalf("expected original request to proceed, got %v", err)
	}
	if n := atomic.LoadInt64(&expired); n != 1 {
		t.Errorf("expected expired hook fired once, got %d", n)
	}
}

// The replayed request carries the original body again.
func TestPostBodyReplayedOnRetry(t *testing.T) {
	var bodies [][]byte
	var mu sync.Mutex
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": "tok2"})
	})
	mux.HandleFunc("/workouts/", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, body)
		mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer tok2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":5}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := newTestStore(t, "expired", time.Time{})
	pair := newTestPair(server.URL, store)

	payload := map[string]string{"title": "morning run"}
	if err := pair.Request.Post(context.Background(), "/workouts/", payload, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(bodies))
	}
	if string(bodies[0]) != string(bodies[1]) {
		t.Errorf("expected identical bodies, got %q and %q", bodies[0], bodies[1])
	}
	if string(bodies[1]) != `{"title":"morning run"}` {
		t.Errorf("unexpected replayed body %q", bodies[1])
	}
}

func TestNetworkFailureClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing is listening anymore

	store := newTestStore(t, "abc", time.Time{})
	pair := newTestPair(server.URL, store)

	err := pair.Request.Get(context.Background(), "/posts/", nil)
	if !IsNetwork(err) {
		t.Fatalf("expected network error, got %v", err)
	}
}
