package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tokencore/go-token-service/auth"
	"github.com/tokencore/go-token-service/internal/config"
	"github.com/tokencore/go-token-service/token"
	"github.com/tokencore/go-token-service/users"
)

// Deps holds the collaborators the server needs: the auth service for the
// route handlers, plus the codec and user repo consumed directly by the gate.
type Deps struct {
	Auth  *auth.Service
	Codec *token.Codec
	Users users.UserRepo
}

type Server struct {
	env            string // Environment (e.g., "DEV", "PROD")
	mux            *http.ServeMux
	handler        http.Handler
	routes         []string
	config         config.Config
	auth           *auth.Service
	codec          *token.Codec
	users          users.UserRepo
	protectedPaths []string
}

func New(cfg config.Config, deps Deps) (*Server, error) {
	if deps.Auth == nil {
		return nil, fmt.Errorf("[Server New] auth service is required")
	}
	if deps.Codec == nil {
		return nil, fmt.Errorf("[Server New] token codec is required")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("[Server New] user repo is required")
	}

	s := &Server{
		mux:            http.NewServeMux(),
		config:         cfg,
		auth:           deps.Auth,
		codec:          deps.Codec,
		users:          deps.Users,
		protectedPaths: cfg.GetProtectedPathPrefixes(),
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	// The gate wraps the whole mux so path classification happens before any
	// handler, matching how protected and public prefixes are declared.
	s.handler = s.AuthGate(s.mux)
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			log.Debug().Str("method", parts[0]).Str("path", parts[1]).Msg("route registered")
		} else {
			log.Debug().Str("path", parts[0]).Msg("route registered")
		}
	}
}
