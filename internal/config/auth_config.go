package config

import "time"

type AuthConfig interface {
	GetTokenIssuer() string
	GetTokenAudience() string
	GetTokenSigningKey() []byte
	GetRefreshTokenLength() int
	GetDefaultAccessTokenExpiry() time.Duration
	GetDefaultRefreshTokenExpiry() time.Duration
}

type Auth struct{}

var _ AuthConfig = Auth{}

func (Auth) GetTokenIssuer() string {
	return GetEnv("TOKEN_ISSUER", "com.healthapp.auth")
}

func (Auth) GetTokenAudience() string {
	return GetEnv("TOKEN_AUDIENCE", "api")
}

func (Auth) GetTokenSigningKey() []byte {
	return []byte(GetEnv("TOKEN_SIGNING_KEY", "dev-only-signing-key"))
}

func (Auth) GetRefreshTokenLength() int {
	return 32 // 32 bytes = 256 bits
}

func (Auth) GetDefaultAccessTokenExpiry() time.Duration {
	return 1 * time.Hour
}

func (Auth) GetDefaultRefreshTokenExpiry() time.Duration {
	return 7 * 24 * time.Hour // 7 days
}
