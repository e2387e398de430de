package client

import (
	"fmt"
	"sync"
)

// retryLedger tracks per request-signature retry counts. It lives only as
// long as the client and is never persisted. An entry is created on first
// failure, incremented per retry and deleted when the request finally
// succeeds.
type retryLedger struct {
	counts map[string]int
	lock   sync.Mutex
}

func newRetryLedger() *retryLedger {
	return &retryLedger{counts: make(map[string]int)}
}

func ledgerKey(method, path string) string {
	return fmt.Sprintf("%s %s", method, path)
}

func (rl *retryLedger) count(method, path string) int {
	rl.lock.Lock()
	defer rl.lock.Unlock()

	return rl.counts[ledgerKey(method, path)]
}

func (rl *retryLedger) increment(method, path string) {
	rl.lock.Lock()
	defer rl.lock.Unlock()

	rl.counts[ledgerKey(method, path)]++
}

func (rl *retryLedger) clear(method, path string) {
	rl.lock.Lock()
	defer rl.lock.Unlock()

	delete(rl.counts, ledgerKey(method, path))
}
