package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopsift/shopsift-api/config"
	"github.com/shopsift/shopsift-api/middleware"
	"github.com/shopsift/shopsift-api/services"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var rootCmd = &cobra.Command{
	Use:           "shopsift",
	Short:         "ShopSift support inbox API",
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		log.Error().Err(err).Msg("Command failed")
	}
	return err
}

// bootstrap loads config, sets up logging and connects to the database
func bootstrap() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	config.SetupLogger(cfg.LogLevel, cfg.GoEnv)

	if err := config.ConnectDatabase(cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return cfg, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if _, err := bootstrap(); err != nil {
		return err
	}
	if err := config.AutoMigrate(config.GetDB()); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info().Msg("Database migration completed successfully")
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}
	if err := config.AutoMigrate(config.GetDB()); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info().Msg("Database migration completed successfully")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cleanup := initServices(ctx, cfg)
	defer cleanup()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	limiter := middleware.NewRateLimiter(cfg.WebhookRateLimit, cfg.WebhookRateBurst)
	router := newRouter(cfg, middleware.EnsureValidToken(cfg), limiter)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.GoEnv).Msg("ShopSift API listening")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// initServices installs the external collaborators. Missing credentials
// disable the matching feature instead of stopping the server.
func initServices(ctx context.Context, cfg *config.Config) func() {
	if _, err := services.InitDraftGenerator(cfg); err != nil {
		log.Warn().Err(err).Msg("Draft generation disabled")
	}

	archive, err := services.InitArchiveService(ctx)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("Inbound archive disabled")
	case archive == nil:
		log.Info().Msg("AWS_S3_BUCKET not set, inbound archive disabled")
	}

	if services.InitMailer(cfg) == nil {
		log.Warn().Msg("SENDGRID_API_KEY not set, replies cannot be sent")
	}

	producer := services.NewKafkaEventProducer(cfg.KafkaBrokers, cfg.KafkaTicketTopic)
	services.SetEventProducer(producer)
	if len(cfg.KafkaBrokers) == 0 {
		log.Info().Msg("KAFKA_BROKERS not set, ticket events disabled")
	}

	return func() {
		if err := producer.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to flush ticket events")
		}
	}
}
