package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/akqa/lms-api/internal/config"
	"github.com/akqa/lms-api/internal/database"
	"github.com/akqa/lms-api/internal/gate"
	"github.com/akqa/lms-api/internal/handlers"
	"github.com/akqa/lms-api/internal/logger"
	"github.com/akqa/lms-api/internal/metrics"
	lmsmw "github.com/akqa/lms-api/internal/middleware"
	"github.com/akqa/lms-api/internal/oauth"
	"github.com/akqa/lms-api/internal/policy"
	"github.com/akqa/lms-api/internal/services"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.SetupDefault(os.Stdout, cfg.IsProduction())

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rolePolicy, err := policy.Load(cfg.PolicyFile)
	if err != nil {
		log.Error("failed to load policy", slog.String("path", cfg.PolicyFile), slog.String("error", err.Error()))
		os.Exit(1)
	}

	proxies, err := lmsmw.NewProxyTrust(cfg.TrustedProxies)
	if err != nil {
		log.Error("failed to parse trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(registry)

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.SessionMaxAge)
	userService := services.NewUserService(db)
	trainingService := services.NewTrainingService(db)
	roleCache := services.NewRoleCache(userService, cfg.RoleCacheTTL)
	google := oauth.NewGoogleProvider(cfg.Google)
	table := gate.DefaultTable()

	if !google.Configured() {
		log.Warn("google oauth credentials missing, sign-in is disabled")
	}

	cookies := lmsmw.CookieConfig{Secure: !cfg.IsLocal(), MaxAge: cfg.SessionMaxAge}

	authHandler := handlers.NewAuthHandler(google, userService, rolePolicy, jwtService, table, cookies, cfg.AppURL, proxies, recorder)
	userHandler := handlers.NewUserHandler(userService, roleCache)
	trainingHandler := handlers.NewTrainingHandler(trainingService)
	healthHandler := handlers.NewHealthHandler(db)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.AppURL},
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())
	app.Use(lmsmw.RequestLogger(log, recorder))
	app.Use(lmsmw.LoadSession(jwtService))

	limiter := lmsmw.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst, proxies)

	auth := app.Group("/auth")
	auth.Use(limiter.Middleware())
	auth.Get("/start", authHandler.Start)
	auth.Get("/callback", authHandler.Callback)
	auth.Post("/logout", authHandler.Logout)
	auth.Get("/logout", authHandler.Logout)
	auth.Get("/session", authHandler.Session)
	auth.Get("/access", authHandler.Access)

	api := app.Group("/api")
	api.Use(lmsmw.Authorize(table, roleCache, recorder))

	api.Get("/categories", trainingHandler.Categories)

	api.Get("/trainings", trainingHandler.List)
	api.Post("/trainings", trainingHandler.Create)
	api.Get("/trainings/:id", trainingHandler.Get)
	api.Patch("/trainings/:id", trainingHandler.Update)
	api.Delete("/trainings/:id", trainingHandler.Delete)

	api.Get("/users", userHandler.List)
	api.Post("/users", userHandler.Assign)
	api.Patch("/users/role", userHandler.UpdateRole)

	app.Get("/healthz", healthHandler.Health)

	metricsHandler := metrics.Handler(registry)
	app.Get("/metrics", func(c *drift.Context) {
		metricsHandler.ServeHTTP(c.Response, c.Request)
	})

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Info("server starting", slog.String("addr", addr), slog.String("env", cfg.Env))
		if err := app.Run(addr); err != nil {
			log.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
}
