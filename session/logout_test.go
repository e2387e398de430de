package session_test

import (
	"context"
	"sync"
	"testing"

	"github.com/jrsteele09/go-session-client/credentials"
	"github.com/jrsteele09/go-session-client/credentials/storefakes"
	"github.com/jrsteele09/go-session-client/session"
	"github.com/jrsteele09/go-session-client/session/sessionfakes"
	"github.com/stretchr/testify/require"
)

func seedBundle(t *testing.T, store credentials.Store) {
	t.Helper()

	require.NoError(t, store.Set(credentials.KeyToken, "access-token"))
	require.NoError(t, store.Set(credentials.KeyRefreshToken, "refresh-token"))
	require.NoError(t, store.Set(credentials.KeyUser, `{"id":"u-1","name":"Jane Doe"}`))
}

func TestForceClearsStoreAndRedirects(t *testing.T) {
	store := storefakes.NewFakeStore()
	nav := sessionfakes.NewFakeNavigator("/dashboard")
	seedBundle(t, store)

	broadcasts := 0
	unsubscribe := store.Subscribe(func(event credentials.Event) {
		if event.Kind == credentials.EventUserUpdated {
			broadcasts++
		}
	})
	defer unsubscribe()

	logout, err := session.NewLogout(store, nav, session.WithSettleDelay(0))
	require.NoError(t, err)

	require.NoError(t, logout.Force(context.Background(), "test"))

	_, hasToken := store.Get(credentials.KeyToken)
	require.False(t, hasToken)
	_, hasUser := store.Get(credentials.KeyUser)
	require.False(t, hasUser)

	// The interrupted protected path is remembered for post-login redirect.
	returnURL, ok := store.Get(credentials.KeyReturnURL)
	require.True(t, ok)
	require.Equal(t, "/dashboard", returnURL)

	require.Equal(t, 1, broadcasts)
	require.Equal(t, []string{"/login"}, nav.Navigations())
}

func TestForceOnPublicPathDoesNotRememberReturnURL(t *testing.T) {
	store := storefakes.NewFakeStore()
	nav := sessionfakes.NewFakeNavigator("/login")
	seedBundle(t, store)

	logout, err := session.NewLogout(store, nav, session.WithSettleDelay(0))
	require.NoError(t, err)

	require.NoError(t, logout.Force(context.Background(), "test"))

	_, ok := store.Get(credentials.KeyReturnURL)
	require.False(t, ok)
}

func TestForceIsIdempotentUnderConcurrency(t *testing.T) {
	store := storefakes.NewFakeStore()
	nav := sessionfakes.NewFakeNavigator("/dashboard")
	seedBundle(t, store)

	logout, err := session.NewLogout(store, nav, session.WithSettleDelay(0))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = logout.Force(context.Background(), "concurrent")
		}()
	}
	wg.Wait()

	_, hasToken := store.Get(credentials.KeyToken)
	require.False(t, hasToken)
	_, hasRefresh := store.Get(credentials.KeyRefreshToken)
	require.False(t, hasRefresh)
	_, hasUser := store.Get(credentials.KeyUser)
	require.False(t, hasUser)
}

func TestForceRespectsConfiguredPaths(t *testing.T) {
	store := storefakes.NewFakeStore()
	nav := sessionfakes.NewFakeNavigator("/welcome")
	seedBundle(t, store)

	logout, err := session.NewLogout(store, nav,
		session.WithSettleDelay(0),
		session.WithLoginPath("/auth/signin"),
		session.WithPublicPaths([]string{"/welcome", "/auth/signin"}),
	)
	require.NoError(t, err)

	require.NoError(t, logout.Force(context.Background(), "test"))

	// /welcome is public in this configuration, so no return URL.
	_, ok := store.Get(credentials.KeyReturnURL)
	require.False(t, ok)
	require.Equal(t, []string{"/auth/signin"}, nav.Navigations())
	require.True(t, logout.IsPublicPath("/welcome"))
	require.Equal(t, "/auth/signin", logout.LoginPath())
}
