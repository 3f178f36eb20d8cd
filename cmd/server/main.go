package main // Entry point package

import (
	"context"
	"log" // Logging library

	"github.com/joho/godotenv"    // .env file loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/movie-collection/internal/config"     // Internal config loader
	"github.com/iliyamo/movie-collection/internal/database"   // MySQL connection pool
	"github.com/iliyamo/movie-collection/internal/handler"    // HTTP handlers
	"github.com/iliyamo/movie-collection/internal/middleware" // JWT, cache and rate-limit middleware
	"github.com/iliyamo/movie-collection/internal/queue"      // activity events
	"github.com/iliyamo/movie-collection/internal/repository" // data access layer
	"github.com/iliyamo/movie-collection/internal/router"     // Internal router setup
	"github.com/iliyamo/movie-collection/internal/service"    // domain services
	"github.com/iliyamo/movie-collection/internal/storage"    // poster file store
)

func main() {
	// Load .env when present; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	// Repositories and domain services.
	users := repository.NewUserRepo(db)
	movies := repository.NewMovieRepo(db)
	auth := service.NewAuthService(users, cfg.JWTSecret, cfg.AccessTTLMin, cfg.BcryptCost)
	movieSvc := service.NewMovieService(movies)

	// Poster storage on local disk, served statically under /uploads.
	posters, err := storage.NewFileStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	// Redis is optional: a nil client disables response caching and rate
	// limiting but the API keeps serving.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; cache and rate limiting disabled")
	}
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	limitMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	authMW := middleware.JWTAuth(func(ctx context.Context, raw string) (uint64, string, bool) {
		id, ok := auth.ValidateToken(ctx, raw)
		return id.UserID, id.Email, ok
	})

	// Best-effort activity events; the consumer tails them into a log file.
	publisher := queue.NewPublisher()
	go func() {
		if err := queue.StartActivityConsumer(); err != nil {
			log.Printf("activity consumer stopped: %v", err)
		}
	}()

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e, cfg.UploadDir)
	router.RegisterAuth(e, handler.NewAuthHandler(auth), authMW, limitMW)
	router.RegisterMovies(e, handler.NewMovieHandler(movieSvc, publisher), handler.NewPosterHandler(posters), authMW, cacheMW)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
