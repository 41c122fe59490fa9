package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/bhojan/bhojan-api/internal/config"
	"github.com/bhojan/bhojan-api/internal/domain/auth"
	"github.com/bhojan/bhojan-api/internal/domain/cart"
	"github.com/bhojan/bhojan-api/internal/domain/catalog"
	"github.com/bhojan/bhojan-api/internal/domain/order"
	"github.com/bhojan/bhojan-api/internal/domain/payment"
	"github.com/bhojan/bhojan-api/internal/domain/reward"
	"github.com/bhojan/bhojan-api/internal/domain/subscription"
	"github.com/bhojan/bhojan-api/internal/domain/user"
	"github.com/bhojan/bhojan-api/internal/middleware"
	"github.com/bhojan/bhojan-api/internal/pkg/database"
	"github.com/bhojan/bhojan-api/internal/pkg/imaging"
	"github.com/bhojan/bhojan-api/internal/pkg/jwt"
	"github.com/bhojan/bhojan-api/internal/pkg/khalti"
	"github.com/bhojan/bhojan-api/internal/pkg/logger"
	pkgresponse "github.com/bhojan/bhojan-api/internal/pkg/response"
	"github.com/bhojan/bhojan-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Bhojan API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, caching and live feed fallback to local mode")
		redis = nil
	}
	if redis != nil {
		defer database.CloseRedis(redis)
	}

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	var store storage.Storage
	if cfg.S3AccessKey != "" {
		s3Store, err := storage.NewS3Storage(storage.Config{
			S3Endpoint:  cfg.S3Endpoint,
			S3Region:    cfg.S3Region,
			S3AccessKey: cfg.S3AccessKey,
			S3SecretKey: cfg.S3SecretKey,
			S3Bucket:    cfg.S3Bucket,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize object storage")
		}
		store = s3Store
	} else {
		log.Warn().Msg("Object storage not configured, image uploads disabled")
	}

	imageProcessor := imaging.NewProcessor(imaging.DefaultConfig())

	khaltiClient := khalti.NewClient(khalti.Config{
		BaseURL:   cfg.KhaltiBaseURL,
		SecretKey: cfg.KhaltiSecretKey,
		Timeout:   time.Duration(cfg.KhaltiTimeoutSeconds) * time.Second,
	})

	deliveryFee, err := decimal.NewFromString(cfg.DeliveryFee)
	if err != nil {
		log.Fatal().Err(err).Str("value", cfg.DeliveryFee).Msg("Invalid DELIVERY_FEE")
	}

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	catalogRepo := catalog.NewRepository(db)
	cartRepo := cart.NewRepository(db)
	rewardRepo := reward.NewRepository(db)
	paymentRepo := payment.NewRepository(db)
	orderRepo := order.NewRepository(db)
	subscriptionRepo := subscription.NewRepository(db)

	// ---------- Live order feed ----------
	feed := order.NewFeed(redis)
	go feed.Run()

	// ---------- Services ----------
	authService := auth.NewService(userRepo, jwtService, redis)
	catalogService := catalog.NewService(catalogRepo, store, imageProcessor)
	cartService := cart.NewService(cartRepo, catalogRepo)
	rewardService := reward.NewService(rewardRepo, redis)
	subscriptionService := subscription.NewService(subscriptionRepo)
	orderService := order.NewService(
		orderRepo,
		cartRepo,
		catalogRepo,
		paymentRepo,
		rewardService,
		khaltiClient,
		subscriptionService,
		feed,
		deliveryFee,
	)

	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go subscriptionService.RunExpirySweeper(sweeperCtx)

	// ---------- Handlers ----------
	authHandler := auth.NewHandler(authService)
	catalogHandler := catalog.NewHandler(catalogService)
	cartHandler := cart.NewHandler(cartService)
	rewardHandler := reward.NewHandler(rewardService)
	paymentHandler := payment.NewHandler(paymentRepo)
	orderHandler := order.NewHandler(orderService)
	subscriptionHandler := subscription.NewHandler(subscriptionService)

	authMiddleware := middleware.Auth(jwtService)
	partnerMiddleware := middleware.RequirePartner()
	adminMiddleware := middleware.RequireAdmin()

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", auth.Routes(authHandler, authMiddleware))
		r.Mount("/catalog", catalog.Routes(catalogHandler, authMiddleware, partnerMiddleware, adminMiddleware))
		r.Mount("/cart", cart.Routes(cartHandler, authMiddleware))
		r.Mount("/orders", order.Routes(orderHandler, feed, authMiddleware, partnerMiddleware))
		r.Mount("/rewards", reward.Routes(rewardHandler, authMiddleware, adminMiddleware))
		r.Mount("/payments", payment.Routes(paymentHandler, authMiddleware))
		r.Mount("/subscriptions", subscription.Routes(subscriptionHandler, authMiddleware))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	stopSweeper()
	feed.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
