package httpapi

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/visitgate/visitgate/internal/auth"
	"github.com/visitgate/visitgate/internal/visitgate/service"
)

type Dependencies struct {
	Logger              *log.Logger
	Addr                string
	VisitorService      *service.VisitorService
	PassService         *service.PassService
	ValidationService   *service.ValidationService
	NotificationService *service.NotificationService
	AuthService         *auth.Service
	Tokens              *auth.TokenManager

	// HubHandler serves the realtime websocket endpoint; it does its own
	// token check at connect time.
	HubHandler http.Handler
}

type Server struct {
	httpServer    *http.Server
	logger        *log.Logger
	mux           *http.ServeMux
	visitors      *service.VisitorService
	passes        *service.PassService
	validation    *service.ValidationService
	notifications *service.NotificationService
	authService   *auth.Service
	tokens        *auth.TokenManager
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:        d.Logger,
		mux:           mux,
		visitors:      d.VisitorService,
		passes:        d.PassService,
		validation:    d.ValidationService,
		notifications: d.NotificationService,
		authService:   d.AuthService,
		tokens:        d.Tokens,
	}

	mux.HandleFunc("POST /v1/auth/login", s.handleLogin)

	// Scanner endpoint: gate devices present blobs without a staff token.
	mux.HandleFunc("POST /v1/passes/validate", s.handleValidate)

	mux.HandleFunc("POST /v1/visitors", s.auth(s.handleRegisterVisitor))
	mux.HandleFunc("GET /v1/visitors", s.auth(s.handleListVisitors))
	mux.HandleFunc("GET /v1/visitors/{id}", s.auth(s.handleGetVisitor))
	mux.HandleFunc("POST /v1/visitors/{id}/cancel", s.auth(s.handleCancelVisitor))

	mux.HandleFunc("POST /v1/passes/visitor", s.auth(s.handleIssueVisitorPass))
	mux.HandleFunc("POST /v1/passes/temporary", s.auth(s.handleIssueTemporaryPass))

	mux.HandleFunc("GET /v1/notifications", s.auth(s.handleUnreadNotifications))
	mux.HandleFunc("POST /v1/notifications/{id}/read", s.auth(s.handleMarkRead))
	mux.HandleFunc("POST /v1/notifications/read_all", s.auth(s.handleMarkAllRead))

	if d.HubHandler != nil {
		mux.Handle("GET /v1/ws", d.HubHandler)
	}

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
