package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"

	"github.com/emrgen/worklink/internal/cache"
	"github.com/emrgen/worklink/internal/config"
	"github.com/emrgen/worklink/internal/jobs"
	"github.com/emrgen/worklink/internal/service"
	"github.com/emrgen/worklink/internal/store"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Server represents the server
type Server struct {
	cfg *config.Config
}

// NewServer creates a new server
func NewServer(cfg *config.Config) *Server {
	return &Server{
		cfg: cfg,
	}
}

// Start starts the server
func (s *Server) Start() {
	if err := Start(s.cfg); err != nil {
		logrus.Fatalf("error starting server: %v", err)
	}
}

// NewHandler builds the HTTP handler of the link API.
func NewHandler(links *service.LinkService, verifier TokenVerifier, members MembershipChecker, allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	NewLinkHandler(links, members).Register(mux, verifier)

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	return RecoverInterceptor(RequestTimeInterceptor(c.Handler(mux)))
}

// NewTokenVerifier picks the token verifier configured for the server.
func NewTokenVerifier(cfg config.AuthConfig) TokenVerifier {
	if cfg.Insecure {
		logrus.Warn("insecure mode: any bearer token is accepted as the user id")
		return NewNullTokenVerifier()
	}
	return NewStaticTokenVerifier(cfg.Tokens)
}

// NewBlockedStatusCache returns the redis cache when redis is enabled.
func NewBlockedStatusCache(cfg *config.Config) cache.BlockedStatusCache {
	client := config.GetRedis(cfg)
	if client == nil {
		return cache.NewNop()
	}
	return cache.NewRedisBlockedStatusCache(client, cfg.Redis.BlockedStatusTTL)
}

// Start starts the http server and the background jobs and blocks until a shutdown signal.
func Start(cfg *config.Config) error {
	config.ConfigureLogger(cfg.Log)

	db, err := config.OpenDb(cfg)
	if err != nil {
		return err
	}

	linkStore := store.NewGormStore(db)
	if err := linkStore.Migrate(); err != nil {
		return err
	}

	links := service.NewLinkService(linkStore, NewBlockedStatusCache(cfg), service.Options{
		CycleCheckMaxDepth: cfg.Links.CycleCheckMaxDepth,
		BulkOnDuplicate:    service.DuplicatePolicy(cfg.Links.BulkOnDuplicate),
	})

	httpPort := ":" + cfg.Server.HTTPPort
	rl, err := net.Listen("tcp", httpPort)
	if err != nil {
		return err
	}

	restServer := &http.Server{
		Addr:    httpPort,
		Handler: NewHandler(links, NewTokenVerifier(cfg.Auth), linkStore, cfg.Server.AllowedOrigins),
	}

	var executor *jobs.TaskExecutor
	if cfg.Jobs.Enabled {
		sweeper := jobs.NewDanglingLinkSweeper(linkStore, links, cfg.Jobs.SweepSchedule, cfg.Jobs.SweepBatchSize)
		executor = jobs.NewTaskExecutor(nil, []jobs.CronJob{sweeper})
		if err := executor.Run(); err != nil {
			_ = rl.Close()
			return err
		}
	}

	// make sure to wait for the server to stop before exiting
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		logrus.Info("starting http server on: ", httpPort)
		if err := restServer.Serve(rl); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logrus.Errorf("error starting http server: %v", err)
			}
		}
		logrus.Infof("http server stopped")
	}()

	logrus.Infof("Press Ctrl+C to stop the server")

	// listen for interrupt signal to gracefully shut down the server
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, unix.SIGTERM, unix.SIGINT)
	<-sigs
	// clean Ctrl+C output
	fmt.Println()

	if executor != nil {
		executor.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := restServer.Shutdown(ctx); err != nil {
		logrus.Errorf("error stopping http server: %v", err)
	}

	wg.Wait()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	return nil
}
