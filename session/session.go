// Package session holds the pieces of the session lifecycle shared between
// the authenticated HTTP client and the session guard: the router and
// notifier ports, the public-path set, and the forced-logout side effect
// that is their single coordination point.
package session

// Navigator exposes the routing surface the session lifecycle needs: the
// current path for public/protected decisions and a redirect primitive.
type Navigator interface {
	CurrentPath() string
	Navigate(path string)
}

// Notifier surfaces user-visible session feedback.
type Notifier interface {
	SessionExpired()
}

// DefaultLoginPath is the login entry point used when none is configured.
const DefaultLoginPath = "/login"

// DefaultPublicPaths are the unauthenticated routes. Forced logout never
// redirects away from these, avoiding redirect loops during login/signup.
func DefaultPublicPaths() []string {
	return []string{"/", DefaultLoginPath, "/signup"}
}

// PathSet answers public/protected queries for a fixed set of paths.
type PathSet map[string]struct{}

// NewPathSet builds a PathSet from a list of paths.
func NewPathSet(paths []string) PathSet {
	set := make(PathSet, len(paths))
	for _, path := range paths {
		set[path] = struct{}{}
	}
	return set
}

// Contains reports whether path is in the set.
func (ps PathSet) Contains(path string) bool {
	_, ok := ps[path]
	return ok
}
