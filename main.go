// main.go
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-ecommerce/config"
	"go-ecommerce/controllers"
	"go-ecommerce/middleware"
	"go-ecommerce/routes"
	"go-ecommerce/services"
	"go-ecommerce/store"
	"go-ecommerce/utils"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	log.Info("starting go-ecommerce", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	client, err := store.ConnectDB(ctx, cfg.Mongo)
	if err != nil {
		log.Error("failed to connect to mongo", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error("failed to disconnect from mongo", slog.Any("err", err))
		}
	}()

	db := client.Database(cfg.Mongo.Database)
	if err := store.EnsureIndexes(ctx, db); err != nil {
		log.Error("failed to create indexes", slog.Any("err", err))
		os.Exit(1)
	}

	emailService, err := utils.NewEmailService(cfg.Email, log)
	if err != nil {
		log.Error("failed to set up email", slog.Any("err", err))
		os.Exit(1)
	}

	tokens := utils.NewTokenManager(cfg.Auth)
	userStore := store.NewUserStore(db)

	authService := services.NewAuthService(userStore, tokens, emailService, cfg.URLs.BaseURL, log)
	orderService := services.NewOrderService(store.NewOrderStore(db), userStore, emailService, log)
	catalogService := services.NewCatalogService(store.NewProductStore(db))
	subscriptionService := services.NewSubscriptionService(store.NewSubscriptionStore(db), emailService, log)

	providers := map[string]controllers.OAuthProvider{}
	for name, p := range utils.NewOAuthProviders(cfg.OAuth, cfg.URLs.BaseURL) {
		providers[name] = p
	}

	// Set up the router
	router := mux.NewRouter()
	router.Use(middleware.RequestID, middleware.Logger(log))
	routes.RegisterRoutes(router, tokens, routes.Controllers{
		Health: controllers.NewHealthController(func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		}, log),
		Auth:         controllers.NewAuthController(authService, providers, cfg.URLs.FrontendURL, log),
		Order:        controllers.NewOrderController(orderService, log),
		Product:      controllers.NewProductController(catalogService, log),
		Subscription: controllers.NewSubscriptionController(subscriptionService, log),
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", slog.Any("err", err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", slog.Any("err", err))
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return log
}
