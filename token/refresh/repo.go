package refresh

import "time"

// StoredRefreshToken is an opaque refresh token at rest
type StoredRefreshToken struct {
	Token  string
	UserID string
	Iat    time.Time
}

type Repo interface {
	Upsert(token *StoredRefreshToken) error
	Get(token string) (*StoredRefreshToken, error)
	GetByUserID(userID string) (*StoredRefreshToken, error)
	Delete(token string) error
	DeleteByUserID(userID string) error
}
