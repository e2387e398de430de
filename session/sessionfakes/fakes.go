package sessionfakes

import (
	"sync"

	"github.com/jrsteele09/go-session-client/session"
)

var (
	_ session.Navigator = (*FakeNavigator)(nil)
	_ session.Notifier  = (*FakeNotifier)(nil)
)

// FakeNavigator is a thread-safe Navigator double that records navigations.
type FakeNavigator struct {
	path        string
	navigations []string
	lock        sync.Mutex
}

// NewFakeNavigator creates a navigator positioned at path.
func NewFakeNavigator(path string) *FakeNavigator {
	return &FakeNavigator{path: path}
}

func (fn *FakeNavigator) CurrentPath() string {
	fn.lock.Lock()
	defer fn.lock.Unlock()

	return fn.path
}

func (fn *FakeNavigator) Navigate(path string) {
	fn.lock.Lock()
	defer fn.lock.Unlock()

	fn.path = path
	fn.navigations = append(fn.navigations, path)
}

// SetPath moves the navigator without recording a navigation, as if the user
// browsed there.
func (fn *FakeNavigator) SetPath(path string) {
	fn.lock.Lock()
	defer fn.lock.Unlock()

	fn.path = path
}

// Navigations returns every recorded redirect in order.
func (fn *FakeNavigator) Navigations() []string {
	fn.lock.Lock()
	defer fn.lock.Unlock()

	return append([]string(nil), fn.navigations...)
}

// FakeNotifier is a Notifier double counting session-expired notices.
type FakeNotifier struct {
	expiredCount int
	lock         sync.Mutex
}

func NewFakeNotifier() *FakeNotifier {
	return &FakeNotifier{}
}

func (fn *FakeNotifier) SessionExpired() {
	fn.lock.Lock()
	defer fn.lock.Unlock()

	fn.expiredCount++
}

// ExpiredCount returns how many session-expired notices were shown.
func (fn *FakeNotifier) ExpiredCount() int {
	fn.lock.Lock()
	defer fn.lock.Unlock()

	return fn.expiredCount
}
