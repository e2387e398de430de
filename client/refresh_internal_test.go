package client

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-session-client/credentials/storefakes"
	"github.com/jrsteele09/go-session-client/session"
	"github.com/jrsteele09/go-session-client/session/sessionfakes"
	"github.com/stretchr/testify/require"
)

// blockingRefresher parks every call until released, so concurrent callers
// demonstrably overlap.
type blockingRefresher struct {
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int64
}

func (br *blockingRefresher) Refresh(ctx context.Context, refreshToken string) (string, error) {
	br.calls.Add(1)
	select {
	case br.entered <- struct{}{}:
	default:
	}
	<-br.release
	return "refreshed-token", nil
}

func newRefreshTestClient(t *testing.T, refresher Refresher, options ...Option) *Client {
	t.Helper()

	store := storefakes.NewFakeStore()
	logout, err := session.NewLogout(store, sessionfakes.NewFakeNavigator("/dashboard"), session.WithSettleDelay(0))
	require.NoError(t, err)

	options = append([]Option{WithRefresher(refresher)}, options...)
	c, err := New("http://healthapp.invalid", store, logout, options...)
	require.NoError(t, err)
	return c
}

func TestSharedRefreshCoalescesConcurrentCalls(t *testing.T) {
	refresher := &blockingRefresher{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	c := newRefreshTestClient(t, refresher, WithSharedRefresh())

	// First caller opens the flight and blocks inside the refresher.
	var wg sync.WaitGroup
	results := make([]string, 10)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = c.refreshAccessToken(context.Background(), "refresh-token")
	}()
	<-refresher.entered

	// The rest join the open flight.
	for i := 1; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.refreshAccessToken(context.Background(), "refresh-token")
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(refresher.release)
	wg.Wait()

	require.EqualValues(t, 1, refresher.calls.Load())
	for _, result := range results {
		require.Equal(t, "refreshed-token", result)
	}
}

func TestUncoalescedRefreshCallsPerCaller(t *testing.T) {
	refresher := &blockingRefresher{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	close(refresher.release) // never block in this mode
	c := newRefreshTestClient(t, refresher)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.refreshAccessToken(context.Background(), "refresh-token")
		}()
	}
	wg.Wait()

	// Default behavior: every concurrent 401 refreshes independently.
	require.EqualValues(t, 3, refresher.calls.Load())
}
