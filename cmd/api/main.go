package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"simplefile/core"
)

func main() {
	cfg := core.Load()
	ctx := context.Background()

	logCloser, err := core.SetupLogging(cfg)
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	opts, err := cfg.StorageOptions()
	if err != nil {
		log.Fatalf("invalid storage options: %v", err)
	}
	if err := os.MkdirAll(opts.BasePath, 0o755); err != nil {
		log.Fatalf("failed to ensure files dir %s: %v", opts.BasePath, err)
	}

	// Users are read once; the store is immutable afterwards.
	var dbSource core.CredentialLister
	if cfg.DatabaseURL != "" {
		db, err := core.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect database: %v", err)
		}
		defer db.Close()
		dbSource = core.NewPgUserRepository(db)
	}
	creds, err := core.LoadCredentialStore(ctx, cfg, dbSource)
	if err != nil {
		log.Fatalf("failed to load users: %v", err)
	}
	if creds.Len() == 0 {
		log.Printf("warning: no users registered; every request will be rejected")
	}

	var metrics *core.StorageMetrics
	if cfg.RedisURL != "" {
		redisClient, err := core.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		defer redisClient.Close()
		metrics = core.NewStorageMetrics(redisClient)
	}

	gate := core.NewBasicAuthGate(creds)
	files := core.NewUserFileStorage(core.NewLocalFileStorage(), opts, core.ContextIdentitySource{})
	router := core.NewRouter(cfg, opts, gate, files, metrics)

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("starting api server on %s files=%s limit=%d users=%d", addr, opts.BasePath, opts.FileSizeLimitBytes, creds.Len())
	if err := router.Run(addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
