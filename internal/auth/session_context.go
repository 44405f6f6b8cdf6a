package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/fenceadmin/internal/models"
	"github.com/charlesng35/fenceadmin/internal/upstream"
	appErrors "github.com/charlesng35/fenceadmin/pkg/errors"
	"github.com/charlesng35/fenceadmin/pkg/validator"
)

// ConsoleDeviceID identifies the console to the platform on logout. Logins append the
// current unix milliseconds so every console login registers as a distinct device.
const ConsoleDeviceID = "ADMIN-CONSOLE"

// Authenticator is the slice of the platform API the session context talks to.
type Authenticator interface {
	Login(ctx context.Context, req upstream.LoginRequest) (string, error)
	VerifySession(ctx context.Context, sessionID string) (models.User, error)
	Logout(ctx context.Context, req upstream.LogoutRequest) error
}

// Option configures a SessionContext.
type Option func(*SessionContext)

// WithClock overrides the clock used for device ids and position stamps.
func WithClock(now func() time.Time) Option {
	return func(s *SessionContext) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *SessionContext) {
		if log != nil {
			s.log = log
		}
	}
}

// SessionContext holds the signed-in administrator. It is created at startup from
// persisted storage, replaced on login and cleared on logout.
type SessionContext struct {
	mu    sync.RWMutex
	state State

	authn Authenticator
	store StateStore
	now   func() time.Time
	log   *zap.Logger
}

// NewSessionContext constructs an empty session context. Call Restore to load a
// persisted session.
func NewSessionContext(authn Authenticator, store StateStore, opts ...Option) (*SessionContext, error) {
	if authn == nil {
		return nil, errors.New("session context: authenticator is required")
	}
	if store == nil {
		return nil, errors.New("session context: state store is required")
	}

	s := &SessionContext{
		authn: authn,
		store: store,
		now:   time.Now,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Restore loads the persisted session. An unreadable record is discarded and the
// context stays signed out.
func (s *SessionContext) Restore(ctx context.Context) error {
	state, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, errNoState):
		return nil
	case err != nil:
		s.log.Warn("discarding unreadable persisted session", zap.Error(err))
		return s.store.Clear(ctx)
	case !state.Valid():
		return s.store.Clear(ctx)
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	s.log.Info("restored admin session", zap.String("user", state.User.Username))
	return nil
}

// Login authenticates, verifies the new session and persists it. Nothing is stored
// unless verification succeeds.
func (s *SessionContext) Login(ctx context.Context, username, password string) (State, error) {
	now := s.now()
	req := upstream.LoginRequest{
		Username: strings.TrimSpace(username),
		Password: password,
		DeviceID: fmt.Sprintf("%s-%d", ConsoleDeviceID, now.UnixMilli()),
		Location: upstream.ConsolePosition(now),
	}
	if err := validator.ValidateStruct(req); err != nil {
		return State{}, appErrors.Precondition(validator.Describe(err))
	}

	sessionID, err := s.authn.Login(ctx, req)
	if err != nil {
		return State{}, err
	}

	user, err := s.authn.VerifySession(ctx, sessionID)
	if err != nil {
		return State{}, err
	}

	state := State{SessionID: sessionID, User: user, CompanyID: user.CompanyID}
	if err := s.store.Save(ctx, state); err != nil {
		return State{}, appErrors.Wrap(err, "Failed to store session")
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	s.log.Info("admin signed in", zap.String("user", user.Username))
	return state, nil
}

// Logout notifies the platform and clears local state. The notification is best
// effort; local state is cleared even when the platform cannot be reached.
func (s *SessionContext) Logout(ctx context.Context) error {
	s.mu.Lock()
	sessionID := s.state.SessionID
	s.state = State{}
	s.mu.Unlock()

	if sessionID != "" {
		err := s.authn.Logout(ctx, upstream.LogoutRequest{
			SessionID: sessionID,
			DeviceID:  ConsoleDeviceID,
			Location:  upstream.ConsolePosition(s.now()),
		})
		if err != nil {
			s.log.Warn("logout notification failed", zap.Error(err))
		}
	}

	return s.store.Clear(ctx)
}

// Current returns a copy of the session state.
func (s *SessionContext) Current() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SessionID returns the platform session id, or "" when signed out.
func (s *SessionContext) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.SessionID
}

// Authenticated reports whether an administrator is signed in.
func (s *SessionContext) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Valid()
}

// RequireCompany returns the working company id or a precondition error carrying
// message (ErrCompanyRequired's message when empty).
func (s *SessionContext) RequireCompany(message string) (string, error) {
	s.mu.RLock()
	companyID := s.state.CompanyID
	s.mu.RUnlock()

	if strings.TrimSpace(companyID) != "" {
		return companyID, nil
	}
	if message == "" {
		return "", appErrors.ErrCompanyRequired
	}
	return "", appErrors.ErrCompanyRequired.WithMessage(message)
}

// SelectCompany sets and persists the working company. An empty id clears it.
func (s *SessionContext) SelectCompany(ctx context.Context, companyID string) (State, error) {
	s.mu.Lock()
	if !s.state.Valid() {
		s.mu.Unlock()
		return State{}, appErrors.ErrUnauthorized
	}
	next := s.state
	next.CompanyID = strings.TrimSpace(companyID)
	s.mu.Unlock()

	if err := s.store.Save(ctx, next); err != nil {
		return State{}, appErrors.Wrap(err, "Failed to store session")
	}

	s.mu.Lock()
	if s.state.SessionID == next.SessionID {
		s.state = next
	}
	s.mu.Unlock()
	return next, nil
}
