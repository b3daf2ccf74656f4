package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"facility-portal/internal/platform/config"
	"facility-portal/internal/platform/logger"
	"facility-portal/internal/router"
)

// @title Facility Portal Stats API
// @version 1.0
// @description Estadísticas de uso de los formularios del portal (aperturas, envíos y tiempos) a partir de la telemetría almacenada.
// @BasePath /
func main() {
	envCfg, err := config.FromEnv()
	if err != nil {
		logger.NewFromEnv().Error("invalid configuration", map[string]any{"error": err.Error()})
		os.Exit(2)
	}
	cfg, logOpts, err := parseFlags(os.Args[1:], envCfg)
	if err != nil {
		logger.NewFromEnv().Error("invalid flags", map[string]any{"error": err.Error()})
		os.Exit(2)
	}
	log := logger.New(logOpts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := router.OpenStore(ctx, cfg)
	if err != nil {
		log.Error("store unavailable", map[string]any{"backend": string(cfg.Backend), "error": err.Error()})
		os.Exit(1)
	}
	defer func() { _ = closeStore() }()

	rdb, err := router.OpenRedis(cfg)
	if err != nil {
		log.Error("redis config", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.NewRouter(router.Options{Config: cfg, Logger: log, Store: store, Redis: rdb}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      writeTimeout(cfg.Stats),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{
			"addr":     srv.Addr,
			"backend":  string(cfg.Backend),
			"timezone": cfg.Stats.Timezone.String(),
			"cache":    rdb != nil,
		})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("shutting down", nil)
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Error("shutdown", map[string]any{"error": err.Error()})
		}
	}
}

// writeTimeout queda por encima del presupuesto de una agregación. Sin
// presupuesto (RequestTimeout 0) la escritura tampoco tiene límite.
func writeTimeout(st config.Stats) time.Duration {
	if st.RequestTimeout <= 0 {
		return 0
	}
	return max(st.RequestTimeout, st.ReadTimeout) + 5*time.Second
}
