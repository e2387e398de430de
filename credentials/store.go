package credentials

// EventKind identifies why a store subscriber was notified.
type EventKind string

const (
	// EventExternalChange fires when another process or tab changed the
	// underlying storage. A store never reports its own writes this way,
	// matching browser storage-event semantics.
	EventExternalChange EventKind = "external_change"

	// EventUserUpdated is the in-page "user changed" broadcast, emitted on
	// login, signup and forced logout.
	EventUserUpdated EventKind = "user_updated"
)

// Event is delivered to store subscribers.
type Event struct {
	Kind EventKind
	Keys []string // changed keys, only set for EventExternalChange
}

// TouchesAuthKeys reports whether an external change affected any of the
// token/user keys. Broadcast events always count.
func (e Event) TouchesAuthKeys() bool {
	if e.Kind == EventUserUpdated {
		return true
	}
	for _, key := range e.Keys {
		for _, authKey := range AuthKeys() {
			if key == authKey {
				return true
			}
		}
	}
	return false
}

// Store is the shared credential store used by the HTTP client, the session
// guard and the login flows. Implementations must make Set, Delete and Clear
// individually atomic; callers perform whole-bundle replace-or-clear
// operations and the last writer wins.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error

	// Clear removes every bundle key. Clearing an already empty store is
	// not an error.
	Clear() error

	// Subscribe registers fn for store events and returns an unsubscribe
	// function. fn may be invoked from a background goroutine.
	Subscribe(fn func(Event)) (unsubscribe func())

	// Broadcast emits the user-updated signal to all subscribers,
	// including subscribers of this same store instance.
	Broadcast()
}
