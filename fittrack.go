// Package fittrack is a Go client SDK for the fittrack fitness-tracking
// API: sign-in and registration, the persisted session with proactive and
// on-401 token refresh, and the profile, workout, goal, and social-feed
// resource clients.
//
// New builds the whole stack wired the way a consuming app mounts it: one
// token store, one HTTP client pair sharing the interceptor protocol, and
// one session manager as the single source of truth for who is signed in.
package fittrack

import (
	"context"

	"github.com/spf13/afero"

	"fittrack/api"
	"fittrack/config"
	"fittrack/models"
	"fittrack/services/auth"
	"fittrack/services/feed"
	"fittrack/services/goals"
	"fittrack/services/profiles"
	"fittrack/services/session"
	"fittrack/services/tokenstore"
	"fittrack/services/workouts"
	"fittrack/utils"
)

// SDK is the assembled client. Construct it once at process start and hand
// it to the UI tree root; Session is the only component consumers mutate
// auth state through.
type SDK struct {
	Config   config.Config
	Settings *config.Manager
	Tokens   *tokenstore.Store
	API      *api.Pair
	Auth     *auth.Service
	Session  *session.Manager
	Profiles *profiles.Service
	Workouts *workouts.Service
	Goals    *goals.Service
	Feed     *feed.Service
}

// New assembles the SDK from cfg. If fs is nil the OS filesystem backs the
// persisted state.
func New(cfg config.Config, fs afero.Fs) (*SDK, error) {
	cfg = cfg.WithDefaults()

	tokens, err := tokenstore.NewStore(fs, cfg.StateDir)
	if err != nil {
		return nil, err
	}
	settings, err := config.NewManager(fs, cfg.StateDir)
	if err != nil {
		return nil, err
	}

	pair := api.NewPair(cfg.BaseURL, tokens, api.Options{
		Timeout:       cfg.Timeout,
		RefreshLeeway: cfg.RefreshLeeway,
		Log:           utils.NewRotatingLogger(cfg.DebugLogPath),
	})

	authSvc := auth.NewService(pair.Session, tokens, cfg.RefreshLeeway)
	profilesSvc := profiles.NewService(pair.Request)

	sessionMgr := session.NewManager(tokens, authSvc, profilesSvc)
	sessionMgr.SetSettingsManager(settings)
	pair.SetOnSessionExpired(func() {
		sessionMgr.Invalidate("your session has expired, please sign in again")
	})

	return &SDK{
		Config:   cfg,
		Settings: settings,
		Tokens:   tokens,
		API:      pair,
		Auth:     authSvc,
		Session:  sessionMgr,
		Profiles: profilesSvc,
		Workouts: workouts.NewService(pair.Request),
		Goals:    goals.NewService(pair.Request),
		Feed:     feed.NewService(pair.Request, profilesSvc),
	}, nil
}

// Login authenticates and records the user in the session context, the
// Anonymous-to-Authenticated transition the UI sign-in form drives.
func (s *SDK) Login(ctx context.Context, creds auth.Credentials) (models.User, error) {
	user, err := s.Auth.Login(ctx, creds)
	if err != nil {
		return models.User{}, err
	}
	s.Session.SetCurrentUser(user)
	return user, nil
}

// Register creates an account and records the user in the session context.
func (s *SDK) Register(ctx context.Context, fields auth.Registration) (models.User, error) {
	user, err := s.Auth.Register(ctx, fields)
	if err != nil {
		return models.User{}, err
	}
	s.Session.SetCurrentUser(user)
	return user, nil
}
