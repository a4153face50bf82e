// Package httpapi exposes the authentication endpoints over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dkravchuk/contactbook/internal/logging"
	"github.com/dkravchuk/contactbook/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 5 * time.Second

type HTTPServer struct {
	address string
	logger  logging.Logger
	users   *services.UserService
	tokens  *services.TokenService
}

func NewHTTPServer(a string, l logging.Logger, us *services.UserService, ts *services.TokenService) (*HTTPServer, error) {
	return &HTTPServer{
		address: a,
		logger:  l.With("module", "http_server"),
		users:   us,
		tokens:  ts,
	}, nil
}

func (s *HTTPServer) router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post("/register/", s.handleRegister)
	r.Get("/confirm-email/", s.handleConfirmEmail)
	r.Post("/token/", s.handleToken)
	r.Post("/refresh-token/", s.handleRefreshToken)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/protected-resource/", s.handleProtectedResource)
	})

	return r
}

func (s *HTTPServer) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
