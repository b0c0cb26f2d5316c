// Package server initializes and runs the activation service.
// It opens the database, applies migrations, wires the services and
// starts the HTTP server with graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dkorchagin/activation/internal/logging"
	"github.com/dkorchagin/activation/internal/security"
	"github.com/dkorchagin/activation/internal/server/config"
	"github.com/dkorchagin/activation/internal/server/httpapi"
	"github.com/dkorchagin/activation/internal/server/mail"
	"github.com/dkorchagin/activation/internal/server/repositories/repomanager"
	"github.com/dkorchagin/activation/internal/server/services"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	api    *httpapi.Handler
}

func NewApp(c *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	hasher := security.NewHasher(security.HashParams{
		TimeCost:    c.HashTimeCost,
		MemoryKiB:   c.HashMemoryKiB,
		Parallelism: c.HashParallelism,
	})
	mailer := mail.NewHTTPMailer(c.MailBaseURL, c.MailTimeout, c.MailMaxRetries, logger)

	registration := services.NewRegistrationService(db, rm, hasher)
	dispatcher := services.NewDispatcherService(db, rm, hasher, mailer, logger, c.OTPLength, c.OTPTTL)
	activation, err := services.NewActivationService(db, rm, hasher, logger)
	if err != nil {
		return nil, fmt.Errorf("activation service init error: %w", err)
	}

	api := httpapi.NewHandler(registration, dispatcher, activation, rm.Users(db), logger)

	return &App{config: c, logger: logger, db: db, api: api}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.HTTPAddr)

	app.initSignalHandler(cancelFunc)

	fiberApp := httpapi.NewApp(app.api)

	errCh := make(chan error, 1)
	go func() {
		errCh <- fiberApp.Listen(app.config.HTTPAddr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			app.logger.Error(ctx, "http server error", "error", err.Error())
		}
	case <-ctx.Done():
		app.logger.Info(ctx, "Shutting down...")
		if err := fiberApp.ShutdownWithTimeout(shutdownTimeout); err != nil {
			app.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
