package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	config "task-board.com/task-board/internal/configs"
	httpapi "task-board.com/task-board/internal/http"
	"task-board.com/task-board/internal/kvstore"
	repository "task-board.com/task-board/internal/repositories"
	"task-board.com/task-board/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Starts the task board HTTP API and the cleanup scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Println(".env file not found, using environment variables")
		}

		cfg := config.Load()

		logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

		redisClient := config.NewRedisClient(cfg.RedisAddr)
		defer redisClient.Close()

		kv := kvstore.NewRedisStore(redisClient, cfg.RedisKeyPrefix)

		db := config.New(cfg.DatabaseDSN)

		taskRepo := repository.NewTaskRepository(db)
		userRepo := repository.NewUserRepository(db)
		cleanupRepo := repository.NewCleanupRepository(db)

		taskService := services.NewTaskService(logger, taskRepo)
		authService := services.NewAuthService(logger, userRepo, cfg.JWTSigningKey, cfg.SessionTTLHours)
		cleanupService := services.NewCleanupService(
			logger,
			taskRepo,
			userRepo,
			cleanupRepo,
			kv,
			cfg.PrimaryAdminEmail,
			cfg.CleanupIntervalDays,
			cfg.AutoReleaseHours,
			cfg.ReleaseCheckIntervalMinutes,
		)

		if err := authService.EnsureInitialAdmin(
			context.Background(),
			cfg.PrimaryAdminEmail,
			cfg.PrimaryAdminPassword,
			cfg.PrimaryAdminName,
		); err != nil {
			log.Fatalf("failed to bootstrap initial admin: %v", err)
		}

		cleanupService.StartReleaseLoop()

		e := echo.New()
		handler := httpapi.NewHandler(taskService, authService, cleanupService)
		httpapi.Register(e, handler, authService, cfg.RateLimit)

		go func() {
			log.Printf("HTTP server listening on %s", cfg.AppURL)
			if err := e.Start(cfg.AppURL); err != nil {
				log.Printf("server stopped: %v", err)
			}
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		ctx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second,
		)
		defer cancel()

		_ = e.Shutdown(ctx)
		cleanupService.Shutdown()

		log.Println("HTTP server and cleanup scheduler shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
