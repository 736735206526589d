package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"KinkLink/internal/config"
	"KinkLink/internal/handlers"
	"KinkLink/internal/hub"
	"KinkLink/internal/logger"
	"KinkLink/internal/middleware"
	"KinkLink/internal/paircache"
	"KinkLink/internal/presence"
	"KinkLink/internal/repo"
	"KinkLink/internal/service"
)

func main() {
	cfg := config.NewConfig()

	sugar, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		panic(err)
	}
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		_ = sugar.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	userRepo := repo.NewUserRepository(gormDB)

	var tracker presence.Tracker
	if cfg.RedisURL != "" {
		rdb, err := presence.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			sugar.Fatalw("failed to connect to redis", "error", err)
		}
		defer rdb.Close()
		tracker = presence.NewRedisTracker(rdb)
	} else {
		mem := presence.NewMemoryTracker(nil)
		go sweepPresence(ctx, mem, cfg.PresenceTTL)
		tracker = mem
	}

	kinksterService := service.NewKinksterService(service.Deps{
		Users:       userRepo,
		Pairs:       repo.NewPairRepository(gormDB),
		Requests:    repo.NewRequestRepository(gormDB),
		Perms:       repo.NewPermissionRepository(gormDB),
		States:      repo.NewStateRepository(gormDB),
		Presence:    tracker,
		PresenceTTL: cfg.PresenceTTL,
		Cache:       paircache.New(cfg.PairCacheSize, cfg.PairCacheTTL),
		Log:         sugar.Named("kinkster"),
	})
	userService := service.NewUserService(userRepo, nil)
	socketHub := hub.New(kinksterService, sugar.Named("hub"), hub.Options{})

	health := func(ctx context.Context) error { return repo.Ping(ctx, gormDB) }
	h := handlers.NewHandler(userService, kinksterService, socketHub, health, sugar, cfg)

	sugar.Infow("Config",
		"BaseURL", cfg.BaseURL,
		"EnableHTTPS", cfg.EnableHTTPS,
		"Redis", cfg.RedisURL != "",
		"PresenceTTL", cfg.PresenceTTL,
		"PairCacheSize", cfg.PairCacheSize,
	)

	srv := &http.Server{
		Addr:              cfg.BaseURL,
		Handler:           h.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		sugar.Infow("Shutting down")
		socketHub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sugar.Errorw("Shutdown failed", "error", err)
		}
	}()

	sugar.Infow("Starting server", "addr", cfg.BaseURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Fatalw("Server failed", "error", err)
	}
}

// sweepPresence удаляет истёкшие аренды присутствия в памяти.
func sweepPresence(ctx context.Context, mem *presence.MemoryTracker, ttl time.Duration) {
	t := time.NewTicker(ttl)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			mem.Sweep()
		}
	}
}
