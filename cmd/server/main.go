package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-chi/chi/v5"

	"github.com/habitloop/achievement-service/internal/achievement"
	"github.com/habitloop/achievement-service/internal/auth"
	"github.com/habitloop/achievement-service/internal/config"
	"github.com/habitloop/achievement-service/internal/habit"
	"github.com/habitloop/achievement-service/internal/httpapi"
	"github.com/habitloop/achievement-service/internal/logging"
	"github.com/habitloop/achievement-service/internal/progress"
	"github.com/habitloop/achievement-service/internal/server"
)

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	logger := logging.NewLogger("achievement-service")

	store, habitRepo, cleanup, err := newStores(ctx, cfg)
	if err != nil {
		panic(fmt.Errorf("store init error: %w", err))
	}
	defer cleanup()

	catalog := achievement.NewCatalog()
	notifier := achievement.NewLogNotifier(logger)

	achievementService, err := achievement.NewService(catalog, store, notifier, achievement.NewSystemClock())
	if err != nil {
		panic(fmt.Errorf("achievement service init error: %w", err))
	}

	habitService, err := habit.NewService(habitRepo, achievementService, habit.NewSystemClock(), habit.NewUUIDGenerator())
	if err != nil {
		panic(fmt.Errorf("habit service init error: %w", err))
	}

	verifier, err := auth.NewVerifier(auth.Config{
		Mode:     auth.Mode(cfg.Auth.Mode),
		JWKSURL:  cfg.Auth.JWKSURL,
		Audience: cfg.Auth.Audience,
		Issuer:   cfg.Auth.Issuer,
	})
	if err != nil {
		panic(fmt.Errorf("auth verifier error: %w", err))
	}

	router := server.NewRouter("achievement-service", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(verifier))

			httpapi.RegisterAchievementRoutes(r, achievementService, logger)
			httpapi.RegisterHabitRoutes(r, habitService, logger)
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if err := server.Run(ctx, srv, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}

func newStores(ctx context.Context, cfg config.Config) (progress.Store, habit.Repository, func(), error) {
	switch cfg.DataStore {
	case "memory":
		return progress.NewMemoryStore(), habit.NewMemoryRepository(), func() {}, nil
	default:
		client, err := firestore.NewClient(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("firestore client: %w", err)
		}
		cleanup := func() { _ = client.Close() }
		return progress.NewFirestoreStore(client), habit.NewFirestoreRepository(client), cleanup, nil
	}
}
