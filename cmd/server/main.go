package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/calvinwijaya/blackjack/internal/api"
	"github.com/calvinwijaya/blackjack/internal/db"
	"github.com/calvinwijaya/blackjack/internal/store"
	"github.com/coder/quartz"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var CLI struct {
	Port        string        `default:"8080" env:"PORT" help:"Server port"`
	Store       string        `default:"sqlite" env:"STORE" enum:"memory,sqlite,postgres,redis" help:"Where game records are kept (memory, sqlite, postgres, redis)"`
	DBPath      string        `name:"db" default:"./data/blackjack.db" env:"DB_PATH" help:"SQLite database path"`
	DatabaseURL string        `name:"database-url" env:"DATABASE_URL" help:"Postgres connection string"`
	RedisAddr   string        `default:"localhost:6379" env:"REDIS_ADDR" help:"Redis address"`
	RedisDB     int           `default:"0" env:"REDIS_DB" help:"Redis database index"`
	RedisList   string        `default:"blackjack:records" env:"REDIS_LIST" help:"Redis list receiving record IDs"`
	Frontend    string        `default:"http://localhost:5173" env:"FRONTEND_URL" help:"Frontend URL for CORS"`
	DealerDelay time.Duration `default:"1s" env:"DEALER_DELAY" help:"Pause before each dealer draw"`
	SessionTTL  time.Duration `default:"30m" env:"SESSION_TTL" help:"Idle time after which a game session is dropped"`
	LogLevel    string        `default:"info" env:"LOG_LEVEL" help:"Log level"`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("blackjack-server"),
		kong.Description("Blackjack game server and result recorder"),
		kong.UsageOnError(),
	)

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(CLI.LogLevel)
	if err != nil {
		logger.WithError(err).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if err := run(logger); err != nil {
		logger.WithError(err).Error("Server exited")
		kctx.Exit(1)
	}
}

func run(logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, closeStore, err := openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	clock := quartz.NewReal()
	sessions := store.NewSessions(clock)
	hub := api.NewHub(sessions, logger, CLI.Frontend)

	handlers := api.NewHandlers(records, sessions, hub, api.Config{
		Clock:       clock,
		DealerDelay: CLI.DealerDelay,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:         ":" + CLI.Port,
		Handler:      handlers.Router(CLI.Frontend),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("WebSocket hub started")
		return hub.Run(gctx)
	})

	g.Go(func() error {
		logger.WithField("port", CLI.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		interval := CLI.SessionTTL / 2
		if interval <= 0 {
			interval = time.Minute
		}
		tk := clock.TickerFunc(gctx, interval, func() error {
			if ids := sessions.Sweep(CLI.SessionTTL); len(ids) > 0 {
				logger.WithField("count", len(ids)).Info("Dropped idle sessions")
			}
			return nil
		}, "sessions", "sweep")
		return tk.Wait()
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// openStore builds the record sink chosen by CLI.Store.
func openStore(ctx context.Context, logger *logrus.Logger) (store.RecordStore, func(), error) {
	switch CLI.Store {
	case "memory":
		logger.Info("In-memory record store initialized")
		return store.NewMemoryStore(), func() {}, nil

	case "sqlite", "postgres":
		driver, dsn := db.DriverSQLite, CLI.DBPath
		if CLI.Store == "postgres" {
			driver, dsn = db.DriverPostgres, CLI.DatabaseURL
			if dsn == "" {
				return nil, nil, errors.New("--database-url (DATABASE_URL) is required for the postgres store")
			}
		}

		database, err := db.Open(driver, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		logger.WithField("driver", database.Driver()).Info("Database initialized successfully")
		return store.NewDatabaseStore(database), func() { database.Close() }, nil

	case "redis":
		rdb, err := store.ConnectRedis(ctx, CLI.RedisAddr, CLI.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		logger.WithField("addr", CLI.RedisAddr).Info("Redis record store connected")
		return store.NewRedisStore(rdb, CLI.RedisList), func() { rdb.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store %q", CLI.Store)
	}
}
