package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"fittrack/services/tokenstore"
)

// refreshPath is the canonical token-refresh endpoint.
const refreshPath = "/auth/token/refresh/"

// refreshResponse tolerates both token envelope variants the API has used.
type refreshResponse struct {
	Token     string `json:"token"`
	Access    string `json:"access"`
	ExpiresIn int64  `json:"expires_in"`
}

// refresher exchanges the persisted token for a fresh one. Concurrent
// callers collapse onto a single in-flight exchange: when many requests hit
// 401 at once, exactly one refresh call goes out and everyone waits on it.
type refresher struct {
	group  singleflight.Group
	tokens *tokenstore.Store
	url    string
	// client is a bare HTTP client. The refresh call must not ride the
	// intercepted transport or a failing refresh would recurse into itself.
	client *http.Client
	leeway time.Duration
	now    func() time.Time
}

func newRefresher(baseURL string, tokens *tokenstore.Store, timeout, leeway time.Duration) *refresher {
	return &refresher{
		tokens: tokens,
		url:    baseURL + refreshPath,
		client: &http.Client{Timeout: timeout},
		leeway: leeway,
		now:    time.Now,
	}
}

// Refresh performs (or joins) a token refresh. On success the fresh token
// and its eligibility timestamp are already persisted when Refresh returns.
func (r *refresher) Refresh(ctx context.Context) error {
	_, err, _ := r.group.Do("refresh", func() (interface{}, error) {
		return nil, r.exchange(ctx)
	})
	return err
}

func (r *refresher) exchange(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, nil)
	if err != nil {
		return fmt.Errorf("create refresh request: %w", err)
	}
	if token, ok := r.tokens.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return NetworkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return NetworkError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return Classify(resp.StatusCode, body)
	}

	var parsed refreshResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("decode refresh response: %w", err)
	}
	token := parsed.Token
	if token == "" {
		token = parsed.Access
	}
	if token == "" {
		return &Error{Kind: KindAuth, StatusCode: resp.StatusCode, Message: "refresh response carried no token"}
	}

	due := tokenstore.Eligibility(r.now(), parsed.ExpiresIn, r.leeway)
	if err := r.tokens.Set(token, due); err != nil {
		return fmt.Errorf("persist refreshed token: %w", err)
	}
	return nil
}
