// Package main runs the in-memory stub backend so the CLI can be tried
// without the real service.
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

	"github.com/bobvengers/mapmate/internal/infrastructure/logger"
	"github.com/bobvengers/mapmate/internal/testutil/fakeapi"
	"go.uber.org/zap"
)

var (
	addr     string
	users    int
	seed     uint64
	secret   string
	logLevel string
)

func init() {
	flag.StringVar(&addr, "addr", ":8080", "listen address")
	flag.IntVar(&users, "users", 3, "random users to create besides demo/demo")
	flag.Uint64Var(&seed, "seed", 0, "seed for generated data (0 picks a random seed)")
	flag.StringVar(&secret, "jwt-secret", "", "HS256 secret for issued tokens (default: built-in test secret)")
	flag.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
}

func main() {
	flag.Parse()

	cfg := logger.DevelopmentConfig()
	cfg.Level = logLevel
	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	var opts []fakeapi.Option
	if seed != 0 {
		opts = append(opts, fakeapi.WithSeed(seed))
	}
	if secret != "" {
		opts = append(opts, fakeapi.WithSecret(secret))
	}
	backend := fakeapi.New(opts...)

	if _, err := backend.SeedUser("demo", "데모", "demo"); err != nil {
		log.Fatal("Failed to seed demo user", zap.Error(err))
	}
	for i := 0; i < users; i++ {
		u, password, err := backend.SeedRandomUser()
		if err != nil {
			log.Fatal("Failed to seed user", zap.Error(err))
		}
		log.Info("Seeded user",
			zap.String("username", u.Username),
			zap.String("nickname", u.Nickname),
			zap.String("password", password),
		)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           backend.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Stub backend listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down stub backend...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
}
