package credentials_test

import (
	"testing"

	"github.com/jrsteele09/go-session-client/credentials"
	"github.com/jrsteele09/go-session-client/credentials/storefakes"
	interrors "github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestParseUserSnapshot(t *testing.T) {
	snapshot, err := credentials.ParseUserSnapshot(`{"id":"u-1","name":"Jane Doe","email":"jane@example.com"}`)
	require.NoError(t, err)
	require.Equal(t, "u-1", snapshot.ID)
	require.Equal(t, "Jane Doe", snapshot.Name)
	require.Equal(t, "jane@example.com", snapshot.Email)
}

func TestParseUserSnapshotMalformed(t *testing.T) {
	_, err := credentials.ParseUserSnapshot(`{"id":`)
	require.Error(t, err)
	require.ErrorIs(t, err, interrors.ErrCorruptSnapshot)
}

func TestSaveLoginStoresBundleAndBroadcasts(t *testing.T) {
	store := storefakes.NewFakeStore()

	var events []credentials.Event
	unsubscribe := store.Subscribe(func(event credentials.Event) {
		events = append(events, event)
	})
	defer unsubscribe()

	user := &credentials.UserSnapshot{ID: "u-1", Name: "Jane Doe", Email: "jane@example.com"}
	require.NoError(t, credentials.SaveLogin(store, "access-token", "refresh-token", user))

	bundle := credentials.LoadBundle(store)
	require.Equal(t, "access-token", bundle.AccessToken)
	require.Equal(t, "refresh-token", bundle.RefreshToken)
	require.True(t, bundle.HasTokens())
	require.NotNil(t, bundle.User)
	require.Equal(t, "u-1", bundle.User.ID)

	require.Len(t, events, 1)
	require.Equal(t, credentials.EventUserUpdated, events[0].Kind)
}

func TestLoadBundleWithMissingKeys(t *testing.T) {
	store := storefakes.NewFakeStore()

	bundle := credentials.LoadBundle(store)
	require.Empty(t, bundle.AccessToken)
	require.Empty(t, bundle.RefreshToken)
	require.Nil(t, bundle.User)
	require.False(t, bundle.HasTokens())
}

func TestLoadBundleIgnoresCorruptSnapshot(t *testing.T) {
	store := storefakes.NewFakeStore()
	require.NoError(t, store.Set(credentials.KeyToken, "access-token"))
	require.NoError(t, store.Set(credentials.KeyUser, "{corrupt"))

	bundle := credentials.LoadBundle(store)
	require.Equal(t, "access-token", bundle.AccessToken)
	require.Nil(t, bundle.User)
}

func TestEventTouchesAuthKeys(t *testing.T) {
	tests := []struct {
		name  string
		event credentials.Event
		want  bool
	}{
		{"user updated broadcast", credentials.Event{Kind: credentials.EventUserUpdated}, true},
		{"token changed", credentials.Event{Kind: credentials.EventExternalChange, Keys: []string{credentials.KeyToken}}, true},
		{"refresh token changed", credentials.Event{Kind: credentials.EventExternalChange, Keys: []string{credentials.KeyRefreshToken}}, true},
		{"profile changed", credentials.Event{Kind: credentials.EventExternalChange, Keys: []string{credentials.KeyProfile}}, false},
		{"return url changed", credentials.Event{Kind: credentials.EventExternalChange, Keys: []string{credentials.KeyReturnURL}}, false},
		{"no keys", credentials.Event{Kind: credentials.EventExternalChange}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.event.TouchesAuthKeys())
		})
	}
}

func TestFakeStoreExternalChangeNotifiesSubscribers(t *testing.T) {
	store := storefakes.NewFakeStore()

	var events []credentials.Event
	unsubscribe := store.Subscribe(func(event credentials.Event) {
		events = append(events, event)
	})
	defer unsubscribe()

	// A store's own writes are never reported as external changes.
	require.NoError(t, store.Set(credentials.KeyToken, "access-token"))
	require.Empty(t, events)

	store.ExternalSet(credentials.KeyToken, "other-tab-token")
	require.Len(t, events, 1)
	require.Equal(t, credentials.EventExternalChange, events[0].Kind)
	require.Equal(t, []string{credentials.KeyToken}, events[0].Keys)

	store.ExternalClear()
	require.Len(t, events, 2)
	require.Equal(t, 0, store.Len())
}

func TestFakeStoreUnsubscribeStopsDelivery(t *testing.T) {
	store := storefakes.NewFakeStore()

	events := 0
	unsubscribe := store.Subscribe(func(credentials.Event) { events++ })

	store.Broadcast()
	require.Equal(t, 1, events)

	unsubscribe()
	store.Broadcast()
	require.Equal(t, 1, events)
}
