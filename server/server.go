// Package server implements the first-party auth service backing the
// health-tracking apps: login, signup, silent token refresh and token
// verification over JSON.
package server

import (
	"net/http"

	"github.com/jrsteele09/go-session-client/internal/config"
	"github.com/jrsteele09/go-session-client/token"
	"github.com/jrsteele09/go-session-client/token/refresh"
	"github.com/jrsteele09/go-session-client/users"
	"github.com/pkg/errors"
)

// Repos holds all repository dependencies for the Server
type Repos struct {
	Users         users.UserRepo // Repository for user accounts
	RefreshTokens refresh.Repo   // Repository for stored refresh tokens
}

type Server struct {
	env           string // Environment (e.g., "development", "production")
	mux           *http.ServeMux
	config        config.Config
	repos         Repos
	tokens        *token.Manager
	refreshTokens *refresh.Manager
}

func New(cfg config.Config, repos Repos) (*Server, error) {
	if repos.Users == nil {
		return nil, errors.New("[server.New] Users repo is required")
	}
	if repos.RefreshTokens == nil {
		return nil, errors.New("[server.New] RefreshTokens repo is required")
	}

	s := &Server{
		mux:           http.NewServeMux(),
		config:        cfg,
		repos:         repos,
		tokens:        token.NewManager(cfg),
		refreshTokens: refresh.NewManager(repos.RefreshTokens, cfg),
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
