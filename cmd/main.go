package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/coursehub/progress-service/internal/auth"
	"github.com/coursehub/progress-service/internal/cache"
	"github.com/coursehub/progress-service/internal/config"
	"github.com/coursehub/progress-service/internal/handlers"
	"github.com/coursehub/progress-service/internal/logger"
	"github.com/coursehub/progress-service/internal/middleware"
	"github.com/coursehub/progress-service/internal/repositories"
	"github.com/coursehub/progress-service/internal/services"
)

// @title CourseHub Progress API
// @version 1.0
// @description API for learning progress tracking and XP rewards

// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting CourseHub Progress Service")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Balance cache is optional; without Redis every balance read recomputes
	// the ledger sum
	var balanceCache services.BalanceCache
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Logger.Warn("Redis unreachable, continuing without balance cache", zap.Error(err))
		} else {
			balanceCache = cache.NewBalanceCache(redisClient, cfg.Redis.BalanceTTL)
		}
	}

	// Initialize token validator
	tokenValidator := auth.NewTokenValidator(cfg.JWT.Secret)

	// Initialize repositories
	rewardRepo := repositories.NewRewardRepository(db)
	enrollmentRepo := repositories.NewEnrollmentRepository(db)
	catalogRepo := repositories.NewCatalogRepository(db)
	progressRepo := repositories.NewContentProgressRepository(db)
	attemptRepo := repositories.NewQuizAttemptRepository(db)
	completionRepo := repositories.NewLessonCompletionRepository(db)
	badgeRepo := repositories.NewBadgeRepository(db)
	statsRepo := repositories.NewStatsRepository(db)
	streakRepo := repositories.NewStreakRepository(db)

	// Initialize services. The completion cascade is wired bottom-up:
	// rewards feed every stage, badges and milestones hang off completions.
	rewardService := services.NewRewardService(rewardRepo, balanceCache, logger.Logger)
	streakService := services.NewStreakService(streakRepo, rewardService, logger.Logger)
	badgeService := services.NewBadgeService(badgeRepo, statsRepo, rewardService, streakRepo, rewardService, logger.Logger)
	milestoneService := services.NewMilestoneService(rewardService, statsRepo, badgeService, logger.Logger)
	claimService := services.NewClaimService(enrollmentRepo, catalogRepo, completionRepo, rewardService, logger.Logger)
	lessonService := services.NewLessonCompletionService(enrollmentRepo, catalogRepo, progressRepo, attemptRepo, completionRepo, claimService, milestoneService, streakService, logger.Logger)
	progressService := services.NewContentProgressService(enrollmentRepo, catalogRepo, progressRepo, rewardService, lessonService, logger.Logger)
	quizService := services.NewQuizService(enrollmentRepo, catalogRepo, attemptRepo, rewardService, lessonService, logger.Logger)

	// Initialize handlers
	progressHandler := handlers.NewProgressHandler(progressService, lessonService, logger.Logger)
	quizHandler := handlers.NewQuizHandler(quizService, logger.Logger)
	claimHandler := handlers.NewClaimHandler(claimService, logger.Logger)
	rewardHandler := handlers.NewRewardHandler(rewardService, logger.Logger)
	badgeHandler := handlers.NewBadgeHandler(badgeService, logger.Logger)
	streakHandler := handlers.NewStreakHandler(streakService, logger.Logger)

	// Initialize auth middleware
	authMiddleware := auth.Middleware(tokenValidator)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger.Logger))
	r.Use(middleware.Recovery(logger.Logger))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(middleware.RequestSizeLimit(1 * 1024 * 1024)) // 1MB

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	// Scope router to /api/v1; every route requires an authenticated user
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			progressHandler.RegisterRoutes(r)
			quizHandler.RegisterRoutes(r)
			claimHandler.RegisterRoutes(r)
			rewardHandler.RegisterRoutes(r)
			badgeHandler.RegisterRoutes(r)
			streakHandler.RegisterRoutes(r)
		})
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "progress_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Get the working directory or use migrations folder relative to the binary
	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directory if running from cmd
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationPath,
		"mysql",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
