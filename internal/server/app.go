// Package server initializes and runs the main application server.
// It opens the database, runs migrations, wires services together,
// handles graceful shutdown, and starts the HTTP server.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dkravchuk/contactbook/internal/logging"
	"github.com/dkravchuk/contactbook/internal/server/auth"
	"github.com/dkravchuk/contactbook/internal/server/config"
	"github.com/dkravchuk/contactbook/internal/server/email"
	"github.com/dkravchuk/contactbook/internal/server/httpapi"
	"github.com/dkravchuk/contactbook/internal/server/repositories/repomanager"
	"github.com/dkravchuk/contactbook/internal/server/services"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	userService  *services.UserService
	tokenService *services.TokenService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	codec, err := auth.NewCodec([]byte(c.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("codec init error: %w", err)
	}

	sender, err := newSender(ctx, c, logger)
	if err != nil {
		return nil, fmt.Errorf("email sender init error: %w", err)
	}

	ts := services.NewTokenService(db, rm, codec, c)
	us := services.NewUserService(db, rm, ts, auth.NewVerificationIssuer(codec), sender, c)

	return &App{config: c, logger: logger, db: db, userService: us, tokenService: ts}, nil
}

// newSender picks the Postmark sender when credentials are configured and the
// log-only dev sender otherwise.
func newSender(ctx context.Context, c *config.Config, logger logging.Logger) (email.Sender, error) {
	if c.PostmarkServerToken == "" && c.PostmarkAccountToken == "" {
		logger.Info(ctx, "Postmark credentials not configured, verification emails will only be logged")
		return email.NewDevSender(logger), nil
	}
	return email.NewPostmarkSender(c.PostmarkServerToken, c.PostmarkAccountToken, c.SenderEmail)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s, err := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.userService, app.tokenService)

	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	} else {

		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
