package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tokencore/go-token-service/auth"
	"github.com/tokencore/go-token-service/internal/config"
	"github.com/tokencore/go-token-service/internal/migrations"
	"github.com/tokencore/go-token-service/server"
	"github.com/tokencore/go-token-service/token"
	"github.com/tokencore/go-token-service/token/refresh"
	"github.com/tokencore/go-token-service/token/refresh/pgstore"
	"github.com/tokencore/go-token-service/token/refresh/redisstore"
	userspg "github.com/tokencore/go-token-service/users/postgres"
)

// sweepInterval is how often lapsed refresh-token rows are deleted from
// Postgres. Redis expires its keys itself.
const sweepInterval = time.Hour

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("error running server")
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load()
	cfg := config.New()
	setupLogger(cfg.GetEnv())
	displayAppname(cfg.GetAppName())

	srv, cleanup, err := buildServer(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	httpServer := &http.Server{Addr: cfg.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

// buildServer wires the token codec, refresh-token store, and user store from
// configuration. Postgres backs the user store; the refresh-token store uses
// Redis when REDIS_URL is set and falls back to Postgres otherwise.
func buildServer(cfg config.Config) (*server.Server, func(), error) {
	secret, err := cfg.GetSecretKey()
	if err != nil {
		return nil, nil, errors.Wrap(err, "token secret")
	}

	codec := token.NewCodec(
		token.NewHMACSigner(secret),
		token.WithExpiry(cfg.GetAccessTokenExpiry(), cfg.GetRefreshTokenExpiry()),
	)

	dsn := cfg.GetDatabaseURL()
	if dsn == "" {
		return nil, nil, errors.New("DATABASE_URL is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, errors.Wrap(err, "db open")
	}
	if err := migrations.Up(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, nil, errors.Wrap(err, "db migrations")
	}
	cleanup := func() { _ = db.Close() }

	userRepo := userspg.NewUserRepo(db)

	var store refresh.Store
	if redisURL := cfg.GetRedisURL(); redisURL != "" {
		redisStore, err := redisstore.NewFromURL(redisURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "redis store")
		}
		if err := redisStore.Ping(context.Background()); err != nil {
			return nil, nil, errors.Wrap(err, "redis ping")
		}
		store = redisStore
		log.Info().Msg("refresh tokens: redis store")
	} else {
		pgStore := pgstore.New(db)
		store = pgStore
		go refresh.Sweep(context.Background(), pgStore, sweepInterval)
		log.Info().Msg("refresh tokens: postgres store")
	}

	authService, err := auth.NewService(userRepo, store, codec,
		auth.WithBcryptCost(cfg.GetBcryptCost()))
	if err != nil {
		return nil, nil, errors.Wrap(err, "auth service")
	}

	srv, err := server.New(cfg, server.Deps{
		Auth:  authService,
		Codec: codec,
		Users: userRepo,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "server")
	}
	return srv, cleanup, nil
}

func setupLogger(env string) {
	if env == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func listenAndServe(httpServer *http.Server) {
	log.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
