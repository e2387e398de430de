package filestore_test

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-session-client/credentials"
	"github.com/jrsteele09/go-session-client/credentials/filestore"
	"github.com/stretchr/testify/require"
)

func TestSetGetClear(t *testing.T) {
	store, err := filestore.New(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set(credentials.KeyToken, "access-token"))

	value, ok := store.Get(credentials.KeyToken)
	require.True(t, ok)
	require.Equal(t, "access-token", value)

	require.NoError(t, store.Clear())
	_, ok = store.Get(credentials.KeyToken)
	require.False(t, ok)

	// Clearing an already empty store is not an error.
	require.NoError(t, store.Clear())
}

func TestBundleSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	store, err := filestore.New(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(credentials.KeyToken, "access-token"))
	require.NoError(t, store.Set(credentials.KeyRefreshToken, "refresh-token"))
	store.Close()

	reopened, err := filestore.New(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, ok := reopened.Get(credentials.KeyToken)
	require.True(t, ok)
	require.Equal(t, "access-token", value)
	value, ok = reopened.Get(credentials.KeyRefreshToken)
	require.True(t, ok)
	require.Equal(t, "refresh-token", value)
}

func TestExternalWriteNotifiesSubscribers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	store, err := filestore.New(path, filestore.WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Set(credentials.KeyToken, "access-token"))

	var lock sync.Mutex
	var events []credentials.Event
	unsubscribe := store.Subscribe(func(event credentials.Event) {
		lock.Lock()
		defer lock.Unlock()
		events = append(events, event)
	})
	defer unsubscribe()

	// A second process (another "tab") clears the shared file.
	other, err := filestore.New(path, filestore.WithPollInterval(time.Hour))
	require.NoError(t, err)
	defer other.Close()
	require.NoError(t, other.Clear())

	require.Eventually(t, func() bool {
		lock.Lock()
		defer lock.Unlock()
		return len(events) > 0
	}, 2*time.Second, 10*time.Millisecond)

	lock.Lock()
	defer lock.Unlock()
	require.Equal(t, credentials.EventExternalChange, events[0].Kind)
	require.Contains(t, events[0].Keys, credentials.KeyToken)

	_, ok := store.Get(credentials.KeyToken)
	require.False(t, ok)
}

func TestOwnWritesAreNotExternalChanges(t *testing.T) {
	store, err := filestore.New(filepath.Join(t.TempDir(), "session.json"), filestore.WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)
	defer store.Close()

	var lock sync.Mutex
	events := 0
	unsubscribe := store.Subscribe(func(event credentials.Event) {
		if event.Kind == credentials.EventExternalChange {
			lock.Lock()
			events++
			lock.Unlock()
		}
	})
	defer unsubscribe()

	require.NoError(t, store.Set(credentials.KeyToken, "access-token"))
	require.NoError(t, store.Set(credentials.KeyUser, `{"id":"u-1"}`))

	time.Sleep(100 * time.Millisecond)

	lock.Lock()
	defer lock.Unlock()
	require.Equal(t, 0, events)
}
