package server

import (
	"net/http"

	"github.com/jrsteele09/go-session-client/authapi"
)

const RouteLogout = "/auth/logout"

func (s *Server) initRoutes() {
	s.registerRouteFunc("POST "+authapi.RouteLogin, s.LoginHandler())
	s.registerRouteFunc("POST "+authapi.RouteSignup, s.SignupHandler())
	s.registerRouteFunc("POST "+authapi.RouteRefresh, s.RefreshHandler())
	s.registerRouteFunc("GET "+authapi.RouteVerify, s.VerifyHandler())
	s.registerRouteFunc("POST "+RouteLogout, s.LogoutHandler())
}

func (s *Server) registerRouteFunc(pattern string, handler http.HandlerFunc) {
	s.mux.HandleFunc(pattern, ChainMiddleware(handler, s.APIMiddleware()...))
}
