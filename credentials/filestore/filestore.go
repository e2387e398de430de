// Package filestore persists the credential bundle as a JSON file, the Go
// equivalent of the browser's shared localStorage. Another process writing
// the same file is observed by a polling watcher and surfaced to subscribers
// as an external-change event, mirroring cross-tab storage events.
package filestore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jrsteele09/go-session-client/credentials"
	"github.com/pkg/errors"
)

var _ credentials.Store = (*FileStore)(nil)

const defaultPollInterval = 1 * time.Second

type FileStore struct {
	path         string
	pollInterval time.Duration

	values      map[string]string
	subscribers map[int]func(credentials.Event)
	nextSubID   int
	lastMod     time.Time
	lock        sync.RWMutex

	done chan struct{}
	wg   sync.WaitGroup
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithPollInterval overrides how often the watcher checks the backing file
// for external writes.
func WithPollInterval(interval time.Duration) Option {
	return func(fs *FileStore) {
		fs.pollInterval = interval
	}
}

// New opens or creates a file-backed credential store at path and starts the
// external-change watcher. Call Close to stop it.
func New(path string, options ...Option) (*FileStore, error) {
	fs := &FileStore{
		path:         path,
		pollInterval: defaultPollInterval,
		values:       make(map[string]string),
		subscribers:  make(map[int]func(credentials.Event)),
		done:         make(chan struct{}),
	}

	for _, opt := range options {
		opt(fs)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrap(err, "[filestore.New] create data folder")
	}

	if err := fs.load(); err != nil {
		return nil, err
	}

	fs.wg.Add(1)
	go fs.watch()

	return fs, nil
}

func (fs *FileStore) Get(key string) (string, bool) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	value, ok := fs.values[key]
	return value, ok
}

func (fs *FileStore) Set(key, value string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.values[key] = value
	return fs.persist()
}

func (fs *FileStore) Delete(key string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	delete(fs.values, key)
	return fs.persist()
}

func (fs *FileStore) Clear() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.values = make(map[string]string)
	return fs.persist()
}

func (fs *FileStore) Subscribe(fn func(credentials.Event)) func() {
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

func (fs *FileStore) Broadcast() {
	fs.notify(credentials.Event{Kind: credentials.EventUserUpdated})
}

// Close stops the external-change watcher. The store remains usable for
// reads and writes afterwards.
func (fs *FileStore) Close() {
	close(fs.done)
	fs.wg.Wait()
}

// load reads the backing file into the in-memory cache. A missing file is an
// empty store.
func (fs *FileStore) load() error {
	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "[filestore.load] read store file")
	}

	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return errors.Wrap(err, "[filestore.load] decode store file")
	}

	fs.values = values
	if info, err := os.Stat(fs.path); err == nil {
		fs.lastMod = info.ModTime()
	}
	return nil
}

// persist writes the cache atomically via temp-file rename. Callers hold the
// write lock.
func (fs *FileStore) persist() error {
	data, err := json.MarshalIndent(fs.values, "", "  ")
	if err != nil {
		return errors.Wrap(err, "[filestore.persist] encode store")
	}

	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "[filestore.persist] write temp file")
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return errors.Wrap(err, "[filestore.persist] rename temp file")
	}

	if info, err := os.Stat(fs.path); err == nil {
		fs.lastMod = info.ModTime()
	}
	return nil
}

// watch polls the backing file and reports keys changed by other processes.
// The store's own writes update the cache first, so reloading after one
// produces an empty diff and no event.
func (fs *FileStore) watch() {
	defer fs.wg.Done()

	ticker := time.NewTicker(fs.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-fs.done:
			return
		case <-ticker.C:
			fs.checkExternalChange()
		}
	}
}

func (fs *FileStore) checkExternalChange() {
	info, err := os.Stat(fs.path)
	if err != nil {
		return
	}

	fs.lock.Lock()
	if !info.ModTime().After(fs.lastMod) {
		fs.lock.Unlock()
		return
	}
	fs.lastMod = info.ModTime()

	previous := fs.values
	fs.values = make(map[string]string)
	if data, err := os.ReadFile(fs.path); err == nil {
		_ = json.Unmarshal(data, &fs.values)
	}
	changed := diffKeys(previous, fs.values)
	fs.lock.Unlock()

	if len(changed) > 0 {
		fs.notify(credentials.Event{Kind: credentials.EventExternalChange, Keys: changed})
	}
}

func (fs *FileStore) notify(event credentials.Event) {
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

func diffKeys(before, after map[string]string) []string {
	changed := make([]string, 0)
	for key, value := range after {
		if beforeValue, ok := before[key]; !ok || beforeValue != value {
			changed = append(changed, key)
		}
	}
	for key := range before {
		if _, ok := after[key]; !ok {
			changed = append(changed, key)
		}
	}
	return changed
}
