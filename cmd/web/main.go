package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/vbhan/go-shop/internal/auth"
	"github.com/vbhan/go-shop/internal/cart"
	"github.com/vbhan/go-shop/internal/config"
	"github.com/vbhan/go-shop/internal/database"
	"github.com/vbhan/go-shop/internal/email"
	httpServer "github.com/vbhan/go-shop/internal/http"
	"github.com/vbhan/go-shop/internal/logging"
	"github.com/vbhan/go-shop/internal/product"
	"github.com/vbhan/go-shop/internal/ratelimit"
	"github.com/vbhan/go-shop/internal/session"
	"github.com/vbhan/go-shop/internal/user"
	"github.com/vbhan/go-shop/internal/view"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// Initialize database connection
	db, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// Initialize Redis connection
	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Initialize repositories
	userRepo := user.NewRepository(db)
	productRepo := product.NewRepository(db)
	cartRepo := cart.NewRepository(db)

	// Initialize session manager backed by Redis
	sessionStore := session.NewRedisStore(redisClient, cfg.Auth.SessionTTL)
	sessions := session.NewManager(
		sessionStore,
		sessionStore,
		cfg.Auth.CookieName,
		cfg.Auth.SessionTTL,
		!cfg.Server.IsDevelopment(), // isProduction
	)

	// Initialize rate limiter
	rateLimiter := ratelimit.NewLimiter(redisClient)

	// Initialize view renderer
	renderer, err := view.NewRenderer(logger)
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}

	// Initialize email service
	mailer := email.NewService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromAddress,
		cfg.Server.BaseURL,
		logger,
	)

	// Initialize auth service and handlers
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	authService := auth.NewService(userRepo, hasher, mailer, logger, cfg.Auth.ResetTokenTTL)

	authHandler := auth.NewHandler(authService, sessions, renderer, rateLimiter)
	productHandler := product.NewHandler(productRepo, sessions, renderer)
	cartHandler := cart.NewHandler(cartRepo, sessions, renderer)

	// Initialize router
	router := httpServer.NewRouter(cfg, sessions, authHandler, productHandler, cartHandler, renderer, logger)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initDB initializes the database connection and returns a Bun DB instance
func initDB(cfg config.DatabaseConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return database.NewBunDB(sqlDB), nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
