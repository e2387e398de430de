package authapi

import "github.com/jrsteele09/go-session-client/credentials"

// Auth service routes shared by the server and its clients.
const (
	RouteLogin   = "/auth/login"
	RouteSignup  = "/auth/signup"
	RouteRefresh = "/auth/refresh"
	RouteVerify  = "/auth/verify"
)

// RefreshRequest carries the refresh token for a silent token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshResponse returns the replacement access token. The refresh token
// itself is not rotated by this endpoint.
type RefreshResponse struct {
	Token string `json:"token"`
}

// LoginRequest carries first-party login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest registers a new account.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login and signup and seeds the credential
// bundle.
type AuthResponse struct {
	Token        string                    `json:"token"`
	RefreshToken string                    `json:"refreshToken"`
	User         *credentials.UserSnapshot `json:"user"`
}

// ErrorResponse is the JSON error body returned by the auth service.
type ErrorResponse struct {
	Error string `json:"error"`
}
