package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"facility-portal/internal/platform/config"
	"facility-portal/internal/platform/lambdaproxy"
	"facility-portal/internal/platform/logger"
	"facility-portal/internal/router"
)

// Cold start: config, store y router se construyen una vez por instancia.
func main() {
	log := logger.NewFromEnv()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", map[string]any{"error": err.Error()})
		panic(err)
	}

	store, _, err := router.OpenStore(context.Background(), cfg)
	if err != nil {
		log.Error("store unavailable", map[string]any{"backend": string(cfg.Backend), "error": err.Error()})
		panic(err)
	}
	rdb, err := router.OpenRedis(cfg)
	if err != nil {
		log.Error("redis config", map[string]any{"error": err.Error()})
		panic(err)
	}

	log.Info("lambda cold start", map[string]any{"backend": string(cfg.Backend), "cache": rdb != nil})
	h := router.NewRouter(router.Options{Config: cfg, Logger: log, Store: store, Redis: rdb})
	lambda.Start(lambdaproxy.Handler(h))
}
