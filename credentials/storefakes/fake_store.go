package storefakes

import (
	"sync"

	"github.com/jrsteele09/go-session-client/credentials"
)

var _ credentials.Store = (*FakeStore)(nil)

// FakeStore is a mutex guarded in-memory credential store for tests. Its
// ExternalSet/ExternalClear methods simulate another tab or process writing
// to shared storage: they mutate the store and emit an external-change event,
// whereas the plain Set/Delete/Clear never do.
type FakeStore struct {
	values      map[string]string
	subscribers map[int]func(credentials.Event)
	nextSubID   int
	lock        sync.RWMutex
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		values:      make(map[string]string),
		subscribers: make(map[int]func(credentials.Event)),
	}
}

func (fs *FakeStore) Get(key string) (string, bool) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	value, ok := fs.values[key]
	return value, ok
}

func (fs *FakeStore) Set(key, value string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.values[key] = value
	return nil
}

func (fs *FakeStore) Delete(key string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	delete(fs.values, key)
	return nil
}

func (fs *FakeStore) Clear() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.values = make(map[string]string)
	return nil
}

func (fs *FakeStore) Subscribe(fn func(credentials.Event)) func() {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	id := fs.nextSubID
	fs.nextSubID++
	fs.subscribers[id] = fn

	return func() {
		fs.lock.Lock()
		defer fs.lock.Unlock()
		delete(fs.subscribers, id)
	}
}

func (fs *FakeStore) Broadcast() {
	fs.notify(credentials.Event{Kind: credentials.EventUserUpdated})
}

// ExternalSet writes a key as if another tab did it and notifies subscribers
// with an external-change event.
func (fs *FakeStore) ExternalSet(key, value string) {
	fs.lock.Lock()
	fs.values[key] = value
	fs.lock.Unlock()

	fs.notify(credentials.Event{Kind: credentials.EventExternalChange, Keys: []string{key}})
}

// ExternalClear clears the store as if another tab logged out.
func (fs *FakeStore) ExternalClear() {
	fs.lock.Lock()
	changed := make([]string, 0, len(fs.values))
	for key := range fs.values {
		changed = append(changed, key)
	}
	fs.values = make(map[string]string)
	fs.lock.Unlock()

	fs.notify(credentials.Event{Kind: credentials.EventExternalChange, Keys: changed})
}

// Len returns the number of stored keys.
func (fs *FakeStore) Len() int {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	return len(fs.values)
}

func (fs *FakeStore) notify(event credentials.Event) {
	fs.lock.RLock()
	subscribers := make([]func(credentials.Event), 0, len(fs.subscribers))
	for _, fn := range fs.subscribers {
		subscribers = append(subscribers, fn)
	}
	fs.lock.RUnlock()

	for _, fn := range subscribers {
		fn(event)
	}
}
