package config

import "time"

type SessionConfig interface {
	GetLoginPath() string
	GetPublicPaths() []string
	GetGuardInterval() time.Duration
	GetLogoutSettleDelay() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetLoginPath() string {
	return GetEnv("LOGIN_PATH", "/login")
}

func (Session) GetPublicPaths() []string {
	return []string{"/", "/login", "/signup"}
}

func (Session) GetGuardInterval() time.Duration {
	return 5 * time.Minute
}

// GetLogoutSettleDelay is the pause between broadcasting a forced logout and
// navigating to the login path, letting in-flight UI updates settle first
func (Session) GetLogoutSettleDelay() time.Duration {
	return 100 * time.Millisecond
}
