package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joekir/ssdeepviz/internal/logger"
	"github.com/joekir/ssdeepviz/internal/server/api"
	"github.com/joekir/ssdeepviz/internal/server/config"
	"github.com/joekir/ssdeepviz/internal/server/crypto"
	"github.com/joekir/ssdeepviz/internal/server/database"
	"github.com/joekir/ssdeepviz/internal/server/engine"
	"github.com/joekir/ssdeepviz/internal/server/metrics"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var overrides config.Overrides
	fs := flag.NewFlagSet("ssdeepviz-server", flag.ContinueOnError)
	addr := fs.String("addr", "", "listen address (default :$PORT or :8080)")
	dbPath := fs.String("db", "", "sqlite database path (default $DATABASE_PATH)")
	debug := fs.Bool("debug", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			overrides.Addr = addr
		case "db":
			overrides.DatabasePath = dbPath
		case "debug":
			overrides.Debug = debug
		}
	})

	cfg, err := config.Load(overrides)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Debug {
		logger.SetLevel(logger.LevelDebug)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Infof("Opening database: %s", cfg.DatabasePath)
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	tokens, err := crypto.NewTokenManager(cfg.MasterSecret, cfg.SessionTTL)
	if err != nil {
		return fmt.Errorf("failed to create token manager: %w", err)
	}
	engines, err := engine.NewManager(&engine.SQLStore{DB: db.DB}, cfg.CacheSize)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go pruneLoop(ctx, engines, cfg.SessionTTL)

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: api.NewRouter(api.Deps{
			Engines:        engines,
			Tokens:         tokens,
			AllowedOrigins: cfg.AllowedOrigins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("ssdeepviz engine server listening on %s", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Infof("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// pruneLoop drops idle sessions periodically.
func pruneLoop(ctx context.Context, engines *engine.Manager, ttl time.Duration) {
	ticker := time.NewTicker(max(ttl/4, time.Minute))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := engines.Prune(ctx, ttl)
			if err != nil {
				logger.Warnf("Failed to prune sessions: %v", err)
				continue
			}
			metrics.SessionsPruned.Add(float64(n))
		}
	}
}
