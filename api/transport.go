package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"fittrack/services/tokenstore"
)

// retryKey marks a request that already went through the refresh-and-replay
// path. A marked request never triggers a second refresh, which is what
// keeps a still-rejected retry from looping.
type retryKey struct{}

// authTransport is the interceptor protocol shared by both clients of the
// pair. Per request, in order: proactive refresh when due, bearer header
// injection, send, and on 401 a single collapse-to-one refresh followed by
// one replay of the original request.
type authTransport struct {
	base      http.RoundTripper
	tokens    *tokenstore.Store
	refresher *refresher
	log       *slog.Logger

	mu               sync.RWMutex
	onSessionExpired func()
}

func newAuthTransport(base http.RoundTripper, tokens *tokenstore.Store, ref *refresher, log *slog.Logger) *authTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &authTransport{
		base:      base,
		tokens:    tokens,
		refresher: ref,
		log:       log,
	}
}

// setOnSessionExpired registers the callback fired when the refresh path is
// exhausted. Wired once during SDK construction, before any request runs.
func (t *authTransport) setOnSessionExpired(fn func()) {
	t.mu.Lock()
	t.onSessionExpired = fn
	t.mu.Unlock()
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	if t.tokens.IsRefreshDue() {
		if err := t.refresher.Refresh(ctx); err != nil {
			// The session is gone, but the original request still goes
			// out and fails on its own terms.
			t.expireSession()
		}
	}

	resp, err := t.base.RoundTrip(t.prepare(req))
	if err != nil {
		return nil, err
	}
	t.debug(req, resp.StatusCode)

	if resp.StatusCode != http.StatusUnauthorized || alreadyRetried(ctx) {
		return resp, nil
	}

	if err := t.refresher.Refresh(ctx); err != nil {
		if clearErr := t.tokens.Clear(); clearErr != nil && t.log != nil {
			t.log.Warn("clear token after failed refresh", "error", clearErr)
		}
		t.expireSession()
		// Propagate the original 401 to the caller.
		return resp, nil
	}

	retry, retryErr := replayable(req)
	if retryErr != nil {
		return resp, nil
	}
	resp.Body.Close()

	retry = retry.WithContext(context.WithValue(ctx, retryKey{}, true))
	return t.RoundTrip(retry)
}

// prepare clones the request and attaches the bearer token and a request ID.
// The incoming request is never mutated, per the RoundTripper contract.
func (t *authTransport) prepare(req *http.Request) *http.Request {
	out := req.Clone(req.Context())
	if token, ok := t.tokens.Token(); ok {
		out.Header.Set("Authorization", "Bearer "+token)
	}
	if out.Header.Get("X-Request-ID") == "" {
		out.Header.Set("X-Request-ID", uuid.NewString())
	}
	return out
}

// replayable rebuilds the request with a fresh body so it can be sent again.
func replayable(req *http.Request) (*http.Request, error) {
	out := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		out.Body = body
	}
	return out, nil
}

func alreadyRetried(ctx context.Context) bool {
	return ctx.Value(retryKey{}) != nil
}

func (t *authTransport) expireSession() {
	t.mu.RLock()
	fn := t.onSessionExpired
	t.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (t *authTransport) debug(req *http.Request, status int) {
	if t.log != nil {
		t.log.Debug("api request", "method", req.Method, "path", req.URL.Path, "status", status)
	}
}
