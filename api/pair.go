package api

import (
	"log/slog"
	"net/http"
	"time"

	"fittrack/services/tokenstore"
)

// Pair holds the two configured clients. Request carries ordinary app
// calls (workouts, goals, feed, profiles); Session carries the
// session-sensitive auth calls. Both point at the same base URL and share
// one token store, one refresher, and one session-expired hook, so the
// interceptor contract is identical whichever client a caller picks.
type Pair struct {
	Request *Client
	Session *Client

	transport *authTransport
}

// Options configures a Pair beyond its base URL.
type Options struct {
	Timeout       time.Duration
	RefreshLeeway time.Duration
	// Log receives per-request debug records when non-nil.
	Log *slog.Logger
	// Base replaces the underlying RoundTripper, mainly for tests.
	Base http.RoundTripper
}

// NewPair builds the client pair around the given token store.
func NewPair(baseURL string, tokens *tokenstore.Store, opts Options) *Pair {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	ref := newRefresher(baseURL, tokens, opts.Timeout, opts.RefreshLeeway)
	transport := newAuthTransport(opts.Base, tokens, ref, opts.Log)

	client := func() *Client {
		return &Client{
			baseURL: baseURL,
			httpClient: &http.Client{
				Timeout:   opts.Timeout,
				Transport: transport,
			},
		}
	}

	return &Pair{
		Request:   client(),
		Session:   client(),
		transport: transport,
	}
}

// SetOnSessionExpired registers the callback both interceptors fire when a
// refresh attempt is exhausted. Wire it before issuing requests.
func (p *Pair) SetOnSessionExpired(fn func()) {
	p.transport.setOnSessionExpired(fn)
}
