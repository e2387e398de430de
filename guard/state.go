package guard

import "github.com/jrsteele09/go-session-client/credentials"

// State is the guard's derived, UI-facing view of session validity. It is
// always recomputed and written whole, never patched field by field, so
// observers can never see a partially updated triple.
type State struct {
	IsAuthenticated bool
	IsLoading       bool
	User            *credentials.UserSnapshot
}

func loadingState() State {
	return State{IsAuthenticated: false, IsLoading: true, User: nil}
}

func unauthenticatedState() State {
	return State{IsAuthenticated: false, IsLoading: false, User: nil}
}

func authenticatedState(user *credentials.UserSnapshot) State {
	return State{IsAuthenticated: true, IsLoading: false, User: user}
}
