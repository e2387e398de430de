package token

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-session-client/internal/config"
	interrors "github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/jrsteele09/go-session-client/users"
	"github.com/pkg/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Manager handles access token creation and verification
type Manager struct {
	config config.AuthConfig
}

// Claims are the verified contents of an access token
type Claims struct {
	UserID    string
	Email     string
	Name      string
	ExpiresAt time.Time
}

// NewManager creates a new access token manager
func NewManager(cfg config.AuthConfig) *Manager {
	return &Manager{
		config: cfg,
	}
}

// Create mints a signed access token for the user
func (m *Manager) Create(user *users.User) (*string, error) {
	claims := jwtlib.MapClaims{
		"iss":   m.config.GetTokenIssuer(),                                               // The issuer of the token
		"aud":   m.config.GetTokenAudience(),                                             // The audience for which the token is intended
		"sub":   user.ID,                                                                 // Subject: the user the token was minted for
		"email": user.Email,
		"name":  user.Name,
		"iat":   int64(NowTimeFunc().Unix()),                                             // Issued At: the time at which the token was issued
		"exp":   int64(NowTimeFunc().Add(m.config.GetDefaultAccessTokenExpiry()).Unix()), // Expiry: when the token will expire
		"jti":   uuid.New().String(),                                                     // Unique token ID
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.config.GetTokenSigningKey())
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Create] sign access token")
	}
	return &signed, nil
}

// Verify parses and validates a raw access token, returning its claims
func (m *Manager) Verify(raw string) (*Claims, error) {
	parsed, err := jwtlib.Parse(raw,
		func(t *jwtlib.Token) (interface{}, error) {
			return m.config.GetTokenSigningKey(), nil
		},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(m.config.GetTokenIssuer()),
		jwtlib.WithAudience(m.config.GetTokenAudience()),
		jwtlib.WithTimeFunc(func() time.Time { return NowTimeFunc() }),
	)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, interrors.ErrTokenExpired
		}
		return nil, errors.Wrap(interrors.ErrInvalidToken, err.Error())
	}

	mapClaims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok || !parsed.Valid {
		return nil, interrors.ErrInvalidToken
	}

	claims := &Claims{}
	if sub, err := mapClaims.GetSubject(); err == nil {
		claims.UserID = sub
	}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	if name, ok := mapClaims["name"].(string); ok {
		claims.Name = name
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}

	return claims, nil
}
