package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"autobahn/internal/api"
	"autobahn/internal/config"
	"autobahn/internal/credstore"
	"autobahn/internal/doris"
	"autobahn/internal/fsx"
	"autobahn/internal/handlers"
	"autobahn/internal/logging"
	"autobahn/internal/middleware"
	"autobahn/internal/scheduler"
	"autobahn/internal/serialize"
)

func main() {
	configPath := flag.String("config", "autobahn.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.L.Fatalw("load config", "path", *configPath, "error", err)
	}

	if _, err := logging.Setup(cfg.Log, cfg.App.Debug); err != nil {
		logging.L.Fatalw("set up logging", "error", err)
	}

	store := credstore.New(cfg.Auth.CredentialFile, cfg.Auth.LoginTTL)

	var db *doris.Connector
	if cfg.Doris.Configured() {
		db, err = doris.Open(cfg.Doris)
		if err != nil {
			logging.L.Fatalw("open doris", "error", err)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if res := db.TestConnection(ctx); res.Errcode != doris.CodeOK {
			// Startup proceeds; queries will fail until the cluster is back.
			logging.L.Warnw("doris pre-check failed", "message", res.Message)
		}
		cancel()
	} else {
		logging.L.Warnw("doris not configured, sql endpoints disabled")
	}

	fs := fsx.NewManager(cfg.S3)
	ser := serialize.New(cfg.Serializer, fs)
	sched := scheduler.NewClient(cfg.Scheduler.Host, cfg.Scheduler.Timeout)

	router := api.NewRouter(api.Deps{
		Account:   handlers.NewAccountHandler(store, cfg.Auth.DefaultGroups),
		Domain:    handlers.NewDomainHandler(cfg.Domains),
		SQL:       handlers.NewSQLHandler(db, ser),
		Scheduler: handlers.NewSchedulerHandler(sched),
		Auth:      middleware.Auth(store),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logging.L.Infow("starting server",
			"app", cfg.App.Name, "version", cfg.App.Version, "address", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L.Fatalw("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.L.Infow("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.L.Fatalw("forced shutdown", "error", err)
	}

	logging.L.Infow("server exited gracefully")
}
