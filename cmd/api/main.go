package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/recipeplanner/recipeplanner-go/internal/config"
	"github.com/recipeplanner/recipeplanner-go/internal/handler"
	"github.com/recipeplanner/recipeplanner-go/internal/mailer"
	"github.com/recipeplanner/recipeplanner-go/internal/middleware"
	"github.com/recipeplanner/recipeplanner-go/internal/repository"
	"github.com/recipeplanner/recipeplanner-go/internal/service"
)

// grantSweepInterval is how often expired password reset grants are purged.
const grantSweepInterval = 10 * time.Minute

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := repository.NewDB(cfg.DatabaseDSN)
	if err != nil {
		slog.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db)
	resetRepo := repository.NewPasswordResetRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	mealPlanRepo := repository.NewMealPlanRepository(db)

	mail := mailer.New(cfg)

	authService := service.NewAuthService(userRepo, resetRepo, mail, cfg.JWTSecret, cfg.JWTExpiry, cfg.ResetTokenTTL, cfg.AppBaseURL)
	favoriteService := service.NewFavoriteService(favoriteRepo)
	mealPlanService := service.NewMealPlanService(mealPlanRepo)

	available := func(ctx context.Context) error {
		return repository.CheckAvailable(ctx, db)
	}

	authHandler := handler.NewAuthHandler(authService)
	favoriteHandler := handler.NewFavoriteHandler(favoriteService, available)
	mealPlanHandler := handler.NewMealPlanHandler(mealPlanService, available)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.NotFound(handler.NotFoundHandler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(5, 10, cfg.TrustProxy))
		r.Post("/api/auth/register", authHandler.HandleRegister)
		r.Post("/api/auth/login", authHandler.HandleLogin)
		r.Post("/api/auth/forgot-password", authHandler.HandleForgotPassword)
		r.Post("/api/auth/reset-password", authHandler.HandleResetPassword)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(cfg.JWTSecret))
		r.Get("/api/auth/me", authHandler.HandleMe)

		r.Get("/api/favorites", favoriteHandler.HandleList)
		r.Post("/api/favorites", favoriteHandler.HandleAdd)
		r.Delete("/api/favorites/{recipeID}", favoriteHandler.HandleRemove)

		r.Get("/api/mealplan", mealPlanHandler.HandleList)
		r.Post("/api/mealplan", mealPlanHandler.HandleAdd)
		r.Delete("/api/mealplan/{date}/{recipeID}", mealPlanHandler.HandleRemoveRecipe)
		r.Delete("/api/mealplan/{date}", mealPlanHandler.HandleRemoveDate)
	})

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sweepExpiredGrants(sweepCtx, resetRepo)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

// sweepExpiredGrants periodically deletes reset grants past their expiry,
// standing in for a store-level row TTL.
func sweepExpiredGrants(ctx context.Context, resets *repository.PasswordResetRepository) {
	ticker := time.NewTicker(grantSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := resets.DeleteExpired(ctx, time.Now())
			if err != nil {
				slog.Warn("expired grant sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("expired reset grants removed", "count", n)
			}
		}
	}
}
