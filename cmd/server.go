/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/thierry1804/toa-permit/internal/api"
	"github.com/thierry1804/toa-permit/internal/config"
	"github.com/thierry1804/toa-permit/internal/container"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long: `Start the TOA Permit API server.
The server listens on the configured host and port and serves the permit
workflow REST API, the WebSocket notification endpoint and the metrics
endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger, err := api.NewLoggerFromConfig(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		ctr, err := container.NewContainer(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer ctr.Close()

		if sweeper := ctr.Sweeper(); sweeper != nil {
			if err := sweeper.Start(); err != nil {
				return fmt.Errorf("failed to start expiry sweeper: %w", err)
			}
		}

		permitController := api.NewPermitController(ctr.PermitService())
		interventionController := api.NewInterventionController(ctr.InterventionService())
		statsController := api.NewStatsController(ctr.StatsService())

		router := api.SetupRoutes(&api.RouterDeps{
			Permits:       permitController,
			Interventions: interventionController,
			Stats:         statsController,
			Hub:           ctr.Hub(),
			Validator:     ctr.TokenValidator(),
			DB:            ctr.DB(),
			CORSOrigins:   cfg.CORS.AllowedOrigins,
			RateLimit:     cfg.Limits,
		})

		// Reload the log level when the config file changes.
		if configPath != "" {
			watcher := config.NewConfigWatcher(cfg, configPath)
			watcher.OnConfigChange(func(newCfg *config.Config) {
				level, err := logrus.ParseLevel(newCfg.Log.Level)
				if err != nil {
					return
				}
				logger.SetLevel(level)
			})
			if err := watcher.Start(); err != nil {
				logger.WithError(err).Warn("config watcher not started")
			}
			defer watcher.Stop()
		}

		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		go func() {
			logger.WithField("addr", addr).Info("server starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}

		logger.Info("server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().String("config", "", "Config file path (default: config.yaml)")
	serverCmd.Flags().String("host", "0.0.0.0", "Server host")
	serverCmd.Flags().Int("port", 8080, "Server port")
}

// LoadConfig loads the configuration from the given path.
func LoadConfig(configPath string) (*config.Config, error) {
	return config.Load(configPath)
}
