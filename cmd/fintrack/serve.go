package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/config"
	"fintrack/internal/database"
	"fintrack/internal/events"
	"fintrack/internal/logger"
	"fintrack/internal/server"
	"fintrack/internal/services"
	"fintrack/internal/validator"
)

func serveCmd() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  `Apply pending migrations and serve the API until SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port, _ := cmd.Flags().GetString("port"); port != "" {
				cfg.Port = port
			}

			log := logger.Get()

			dbManager, err := database.NewManager(cfg.DB)
			if err != nil {
				return fmt.Errorf("failed to create database manager: %w", err)
			}
			defer func() {
				if err := dbManager.Close(); err != nil {
					log.Warnw("failed to close database", "error", err)
				}
			}()

			if !skipMigrations {
				if err := dbManager.RunMigrations(); err != nil {
					return fmt.Errorf("failed to run database migrations: %w", err)
				}
			}

			publisher, err := newPublisher(cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := publisher.Close(); err != nil {
					log.Warnw("failed to close event publisher", "error", err)
				}
			}()

			validator.Register()

			db := dbManager.DB()
			audit := services.NewAuditRecorder(publisher)
			router := server.NewRouter(server.Services{
				Categories:   services.NewCategoryService(db, audit),
				Transactions: services.NewTransactionService(db, audit),
				Reports:      services.NewReportService(db),
			}, server.RouterOptions{
				RequestTimeout: cfg.RequestTimeout,
				Health:         dbManager,
			})

			log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", cfg.Port)
			return server.Run(cmd.Context(), ":"+cfg.Port, router, cfg.ShutdownTimeout)
		},
	}

	cmd.Flags().String("port", "", "listen port (overrides PORT)")
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply migrations at startup")
	return cmd
}

// newPublisher connects to the broker when AMQP_URL is set and otherwise
// drops audit events.
func newPublisher(cfg *config.Config) (events.Publisher, error) {
	if cfg.AMQPURL == "" {
		return events.NopPublisher{}, nil
	}
	pub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to message broker: %w", err)
	}
	logger.Get().Infow("publishing audit events", "exchange", cfg.AMQPExchange)
	return pub, nil
}
