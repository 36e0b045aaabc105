// Package auth wraps the authentication endpoints: login, registration,
// logout, and the current-user lookup. It owns persisting the token on
// successful sign-in and normalizing credential rejections.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"fittrack/api"
	"fittrack/models"
	"fittrack/services/tokenstore"
)

// Credentials are the sign-in fields.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the sign-up form payload. Password confirmation and
// format checks happen in the form, not here; the server has the last word.
type Registration struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}

// tokenEnvelope tolerates both envelope variants the API has used: the
// token arrives under "key" on some deployments and "token" on others.
type tokenEnvelope struct {
	Key       string      `json:"key"`
	Token     string      `json:"token"`
	ExpiresIn int64       `json:"expires_in"`
	User      models.User `json:"user"`
}

func (t tokenEnvelope) token() string {
	if t.Key != "" {
		return t.Key
	}
	return t.Token
}

// Service is the thin auth layer over the session client of the pair.
type Service struct {
	client *api.Client
	tokens *tokenstore.Store
	leeway time.Duration
	now    func() time.Time
}

// NewService creates the auth service. leeway controls how long before
// expiry the persisted token becomes eligible for proactive refresh.
func NewService(client *api.Client, tokens *tokenstore.Store, leeway time.Duration) *Service {
	return &Service{
		client: client,
		tokens: tokens,
		leeway: leeway,
		now:    time.Now,
	}
}

// Login authenticates with the server and persists the returned token.
func (s *Service) Login(ctx context.Context, creds Credentials) (models.User, error) {
	var resp tokenEnvelope
	if err := s.client.Post(ctx, "/auth/login/", creds, &resp); err != nil {
		return models.User{}, asRejection(err, "login failed")
	}
	if err := s.persistToken(resp); err != nil {
		return models.User{}, err
	}
	return resp.User, nil
}

// Register creates an account and persists the returned token. Server-side
// field rejections come back as a validation error carrying the field map.
func (s *Service) Register(ctx context.Context, fields Registration) (models.User, error) {
	var resp tokenEnvelope
	if err := s.client.Post(ctx, "/auth/registration/", fields, &resp); err != nil {
		return models.User{}, err
	}
	if err := s.persistToken(resp); err != nil {
		return models.User{}, err
	}
	return resp.User, nil
}

// Logout tells the server best-effort and always clears the local token.
// An unreachable or failing server never blocks the local sign-out.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.client.Post(ctx, "/auth/logout/", nil, nil); err != nil {
		log.Printf("[auth] server logout failed, clearing local session anyway: %v", err)
	}
	if err := s.tokens.Clear(); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// CurrentUser fetches the authenticated user record.
func (s *Service) CurrentUser(ctx context.Context) (models.User, error) {
	var user models.User
	if err := s.client.Get(ctx, "/auth/user/", &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *Service) persistToken(resp tokenEnvelope) error {
	token := resp.token()
	if token == "" {
		return &api.Error{Kind: api.KindAuth, Message: "login response carried no token"}
	}

	due := tokenstore.Eligibility(s.now(), resp.ExpiresIn, s.leeway)
	if err := s.tokens.Set(token, due); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	return nil
}

// asRejection folds a credential rejection into an auth error, surfacing
// the server's reason when it sent one.
func asRejection(err error, fallback string) error {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Kind {
	case api.KindValidation, api.KindAuth:
		message := apiErr.Message
		if message == "" || message == "validation failed" || message == "authentication required" {
			message = fallback
		}
		return &api.Error{
			Kind:       api.KindAuth,
			StatusCode: apiErr.StatusCode,
			Message:    message,
			Fields:     apiErr.Fields,
		}
	}
	return err
}
