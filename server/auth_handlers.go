package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-session-client/authapi"
	"github.com/jrsteele09/go-session-client/credentials"
	interrors "github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/jrsteele09/go-session-client/users"
	"github.com/rs/zerolog/log"
)

// LoginHandler authenticates email/password credentials and issues a fresh
// access and refresh token pair.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authapi.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user, err := s.repos.Users.GetByEmail(req.Email)
		if err != nil {
			// Same response as a bad password, never revealing which
			// accounts exist.
			writeError(w, http.StatusUnauthorized, interrors.ErrInvalidCredentials.Error())
			return
		}

		if !users.CheckPasswordHash(req.Password, user.PasswordHash) {
			writeError(w, http.StatusUnauthorized, interrors.ErrInvalidCredentials.Error())
			return
		}

		s.issueTokens(w, user)
		if err := s.repos.Users.SetLastLogin(user.Email); err != nil {
			log.Err(err).Str("email", user.Email).Msg("failed to record last login")
		}
	}
}

// SignupHandler registers a new account and logs it straight in.
func (s *Server) SignupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authapi.SignupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if req.Email == "" || req.Name == "" {
			writeError(w, http.StatusBadRequest, "name and email are required")
			return
		}
		if err := users.ValidatePasswordStrength(req.Password); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if _, err := s.repos.Users.GetByEmail(req.Email); err == nil {
			writeError(w, http.StatusConflict, interrors.ErrUserExists.Error())
			return
		}

		passwordHash, err := users.HashPassword(req.Password)
		if err != nil {
			writeError(w, http.StatusInternalServerError, interrors.ErrInternal.Error())
			return
		}

		user := &users.User{
			Email:        req.Email,
			Name:         req.Name,
			PasswordHash: passwordHash,
		}
		if err := s.repos.Users.Upsert(user); err != nil {
			writeError(w, http.StatusInternalServerError, interrors.ErrInternal.Error())
			return
		}

		s.issueTokens(w, user)
	}
}

// RefreshHandler exchanges a valid refresh token for a new access token. The
// refresh token itself is left in place.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authapi.RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
			writeError(w, http.StatusBadRequest, "refresh token is required")
			return
		}

		userID, err := s.refreshTokens.Validate(req.RefreshToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, interrors.ErrInvalidRefreshToken.Error())
			return
		}

		user, err := s.repos.Users.GetByID(userID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, interrors.ErrInvalidRefreshToken.Error())
			return
		}

		accessToken, err := s.tokens.Create(user)
		if err != nil {
			log.Err(err).Msg("failed to mint access token on refresh")
			writeError(w, http.StatusInternalServerError, interrors.ErrInternal.Error())
			return
		}

		writeJSON(w, http.StatusOK, authapi.RefreshResponse{Token: *accessToken})
	}
}

// VerifyHandler reports whether the presented access token is still valid.
func (s *Server) VerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, interrors.ErrInvalidToken.Error())
			return
		}

		if _, err := s.tokens.Verify(raw); err != nil {
			writeError(w, http.StatusUnauthorized, interrors.ErrInvalidToken.Error())
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

// LogoutHandler invalidates the caller's refresh token, ending silent
// refresh for the session. The access token simply ages out.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, interrors.ErrInvalidToken.Error())
			return
		}

		claims, err := s.tokens.Verify(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, interrors.ErrInvalidToken.Error())
			return
		}

		if err := s.refreshTokens.InvalidateForUser(claims.UserID); err != nil {
			log.Debug().Str("user_id", claims.UserID).Msg("no refresh token to invalidate")
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) issueTokens(w http.ResponseWriter, user *users.User) {
	accessToken, err := s.tokens.Create(user)
	if err != nil {
		log.Err(err).Msg("failed to mint access token")
		writeError(w, http.StatusInternalServerError, interrors.ErrInternal.Error())
		return
	}

	refreshToken, err := s.refreshTokens.Create(user.ID)
	if err != nil {
		log.Err(err).Msg("failed to mint refresh token")
		writeError(w, http.StatusInternalServerError, interrors.ErrInternal.Error())
		return
	}

	writeJSON(w, http.StatusOK, authapi.AuthResponse{
		Token:        *accessToken,
		RefreshToken: *refreshToken,
		User: &credentials.UserSnapshot{
			ID:     user.ID,
			Name:   user.Name,
			Email:  user.Email,
			Avatar: user.Avatar,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, authapi.ErrorResponse{Error: message})
}
