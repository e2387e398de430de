// Package guard implements the ambient session validator. Independently of
// the HTTP client's per-request recovery it certifies the current session on
// a timer and in reaction to store events, recomputes the UI-facing auth
// state and drives the session-expired redirect on protected routes.
package guard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/go-session-client/credentials"
	"github.com/jrsteele09/go-session-client/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// SleepFunc pauses the current goroutine. It can be overridden in tests.
var SleepFunc = time.Sleep

const (
	defaultInterval   = 5 * time.Minute
	verifyAttempts    = 3
	verifyBackoffUnit = 1 * time.Second
)

// Verifier checks an access token against the remote auth service.
type Verifier interface {
	Verify(ctx context.Context, accessToken string) error
}

// Guard periodically validates the stored session. Validation passes run on
// start, on a fixed interval, on external credential-store changes touching
// the token/user keys, and on the in-page user-updated broadcast. The guard
// and the HTTP client retry independently and coordinate only through the
// shared store and forced logout.
type Guard struct {
	store    credentials.Store
	verifier Verifier
	logout   *session.Logout
	nav      session.Navigator
	notifier session.Notifier
	logger   zerolog.Logger
	interval time.Duration
	onState  func(State)

	state     State
	stateLock sync.RWMutex

	live        atomic.Bool
	triggers    chan struct{}
	done        chan struct{}
	unsubscribe func()
	wg          sync.WaitGroup
	started     bool
	startLock   sync.Mutex
}

// Option defines a function type to modify the Guard instance.
type Option func(*Guard)

// WithInterval overrides the periodic validation interval.
func WithInterval(interval time.Duration) Option {
	return func(g *Guard) {
		g.interval = interval
	}
}

// WithNotifier sets the session-expired notifier.
func WithNotifier(notifier session.Notifier) Option {
	return func(g *Guard) {
		g.notifier = notifier
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

// WithStateListener registers fn to be called with every recomputed state.
// fn runs on the guard's goroutine.
func WithStateListener(fn func(State)) Option {
	return func(g *Guard) {
		g.onState = fn
	}
}

// New creates a session guard. Call Start to begin validating and Stop to
// tear it down.
func New(store credentials.Store, verifier Verifier, logout *session.Logout, nav session.Navigator, options ...Option) (*Guard, error) {
	if store == nil {
		return nil, errors.New("[guard.New] store is required")
	}
	if verifier == nil {
		return nil, errors.New("[guard.New] verifier is required")
	}
	if logout == nil {
		return nil, errors.New("[guard.New] logout is required")
	}
	if nav == nil {
		return nil, errors.New("[guard.New] navigator is required")
	}

	g := &Guard{
		store:    store,
		verifier: verifier,
		logout:   logout,
		nav:      nav,
		logger:   zerolog.Nop(),
		interval: defaultInterval,
		state:    loadingState(),
		triggers: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	for _, opt := range options {
		opt(g)
	}

	return g, nil
}

// State returns the last recomputed auth state.
func (g *Guard) State() State {
	g.stateLock.RLock()
	defer g.stateLock.RUnlock()

	return g.state
}

// Start runs the initial validation pass synchronously (the only pass that
// leaves IsLoading set while it runs) and then validates in the background
// until Stop is called or ctx is cancelled.
func (g *Guard) Start(ctx context.Context) error {
	g.startLock.Lock()
	if g.started {
		g.startLock.Unlock()
		return errors.New("[Guard.Start] already started")
	}
	g.started = true
	g.startLock.Unlock()

	g.live.Store(true)
	g.unsubscribe = g.store.Subscribe(func(event credentials.Event) {
		if !event.TouchesAuthKeys() {
			return
		}
		g.trigger()
	})

	g.validationPass(ctx)

	g.wg.Add(1)
	go g.run(ctx)
	return nil
}

// Stop cancels the interval timer and detaches the store subscription. An
// in-flight validation pass is not interrupted; its result is discarded.
func (g *Guard) Stop() {
	g.startLock.Lock()
	defer g.startLock.Unlock()

	if !g.started {
		return
	}
	g.started = false

	g.live.Store(false)
	if g.unsubscribe != nil {
		g.unsubscribe()
		g.unsubscribe = nil
	}
	close(g.done)
	g.wg.Wait()
	g.done = make(chan struct{})
}

func (g *Guard) run(ctx context.Context) {
	defer g.wg.Done()

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			g.live.Store(false)
			return
		case <-g.done:
			return
		case <-ticker.C:
			g.validationPass(ctx)
		case <-g.triggers:
			g.validationPass(ctx)
		}
	}
}

// trigger requests a revalidation. Bursts of events coalesce into one pass.
func (g *Guard) trigger() {
	select {
	case g.triggers <- struct{}{}:
	default:
	}
}

// validationPass recomputes the auth state from scratch: read the bundle,
// parse the snapshot, verify the token remotely with linear-backoff retries,
// and either certify the session or tear it down. A pass finishing after
// Stop writes nothing.
func (g *Guard) validationPass(ctx context.Context) {
	token, hasToken := g.store.Get(credentials.KeyToken)
	rawUser, hasUser := g.store.Get(credentials.KeyUser)
	if !hasToken || token == "" || !hasUser {
		g.invalidate(ctx)
		return
	}

	user, err := credentials.ParseUserSnapshot(rawUser)
	if err != nil {
		g.logger.Warn().Err(err).Msg("stored user snapshot is corrupt")
		g.invalidate(ctx)
		return
	}

	if err := g.verifyWithRetries(ctx, token); err != nil {
		g.logger.Info().Err(err).Msg("session verification failed")
		g.invalidate(ctx)
		return
	}

	g.setState(authenticatedState(user))
}

// verifyWithRetries absorbs transient blips around the verify call: up to
// three attempts, sleeping 1s, 2s, 3s after each failure. Network errors and
// confirmed-invalid answers are treated identically once the attempts are
// exhausted.
func (g *Guard) verifyWithRetries(ctx context.Context, token string) error {
	var err error
	for attempt := 1; attempt <= verifyAttempts; attempt++ {
		err = g.verifier.Verify(ctx, token)
		if err == nil {
			return nil
		}
		SleepFunc(time.Duration(attempt) * verifyBackoffUnit)
	}
	return err
}

// invalidate tears the session down. On a public route it only clears and
// broadcasts, so the login and signup flows are never redirected mid-flight;
// on a protected route it shows the session-expired notice and resolves
// through the shared forced logout. An already-empty store is left silent to
// keep broadcast-triggered revalidation from looping.
func (g *Guard) invalidate(ctx context.Context) {
	defer g.setState(unauthenticatedState())

	hadCredentials := false
	for _, key := range credentials.AuthKeys() {
		if _, ok := g.store.Get(key); ok {
			hadCredentials = true
			break
		}
	}

	if g.logout.IsPublicPath(g.nav.CurrentPath()) {
		if hadCredentials {
			if err := g.store.Clear(); err != nil {
				g.logger.Err(err).Msg("failed to clear credential store")
			}
			g.store.Broadcast()
		}
		return
	}

	if g.notifier != nil {
		g.notifier.SessionExpired()
	}
	if err := g.logout.Force(ctx, "session validation failed"); err != nil {
		g.logger.Err(err).Msg("forced logout failed")
	}
}

func (g *Guard) setState(state State) {
	if !g.live.Load() {
		return
	}

	g.stateLock.Lock()
	g.state = state
	g.stateLock.Unlock()

	if g.onState != nil {
		g.onState(state)
	}
}
