package session

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-session-client/credentials"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// SleepFunc pauses the current goroutine. It can be overridden in tests.
var SleepFunc = time.Sleep

const defaultSettleDelay = 100 * time.Millisecond

// Logout is the shared forced-logout side effect. Both the HTTP client (on
// unrecoverable auth failure) and the guard (on a failed validation pass)
// resolve through the same instance, so the credential bundle is cleared and
// the user-updated signal broadcast at most once no matter who fires first.
type Logout struct {
	store       credentials.Store
	nav         Navigator
	loginPath   string
	publicPaths PathSet
	settleDelay time.Duration
	logger      zerolog.Logger

	inFlight bool
	lock     sync.Mutex
}

// LogoutOption defines a function type to modify the Logout instance.
type LogoutOption func(*Logout)

// WithLoginPath sets the path navigated to after a forced logout.
func WithLoginPath(path string) LogoutOption {
	return func(l *Logout) {
		l.loginPath = path
	}
}

// WithPublicPaths sets the unauthenticated routes.
func WithPublicPaths(paths []string) LogoutOption {
	return func(l *Logout) {
		l.publicPaths = NewPathSet(paths)
	}
}

// WithSettleDelay sets the pause before the redirect. Zero disables it,
// which tests rely on.
func WithSettleDelay(delay time.Duration) LogoutOption {
	return func(l *Logout) {
		l.settleDelay = delay
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) LogoutOption {
	return func(l *Logout) {
		l.logger = logger
	}
}

// NewLogout creates the shared forced-logout helper.
func NewLogout(store credentials.Store, nav Navigator, options ...LogoutOption) (*Logout, error) {
	if store == nil {
		return nil, errors.New("[NewLogout] store is required")
	}
	if nav == nil {
		return nil, errors.New("[NewLogout] navigator is required")
	}

	logout := &Logout{
		store:       store,
		nav:         nav,
		loginPath:   DefaultLoginPath,
		publicPaths: NewPathSet(DefaultPublicPaths()),
		settleDelay: defaultSettleDelay,
		logger:      zerolog.Nop(),
	}

	for _, opt := range options {
		opt(logout)
	}

	return logout, nil
}

// Force clears the credential bundle, remembers the interrupted path for
// post-login redirect, broadcasts the user-updated signal and, after the
// settle delay, navigates to the login path. Invoking it while another
// invocation is in flight is a no-op.
func (l *Logout) Force(ctx context.Context, reason string) error {
	l.lock.Lock()
	if l.inFlight {
		l.lock.Unlock()
		return nil
	}
	l.inFlight = true
	l.lock.Unlock()

	defer func() {
		l.lock.Lock()
		l.inFlight = false
		l.lock.Unlock()
	}()

	l.logger.Info().Str("reason", reason).Msg("forcing logout")

	currentPath := l.nav.CurrentPath()

	if err := l.store.Clear(); err != nil {
		return errors.Wrap(err, "[Logout.Force] clear credential store")
	}

	// Remember where the user was, but never a public path: returning to
	// /login after login would loop.
	if !l.publicPaths.Contains(currentPath) {
		if err := l.store.Set(credentials.KeyReturnURL, currentPath); err != nil {
			return errors.Wrap(err, "[Logout.Force] store return url")
		}
	}

	l.store.Broadcast()

	if l.settleDelay > 0 {
		SleepFunc(l.settleDelay)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	l.nav.Navigate(l.loginPath)
	return nil
}

// LoginPath returns the configured login entry point.
func (l *Logout) LoginPath() string {
	return l.loginPath
}

// IsPublicPath reports whether path is an unauthenticated route.
func (l *Logout) IsPublicPath(path string) bool {
	return l.publicPaths.Contains(path)
}
