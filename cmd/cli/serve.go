package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/flavorlab/nutrigraph/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the NutriGraph HTTP server",
	Long: `Start the NutriGraph HTTP server to provide REST access to the catalogue.

The server provides endpoints for:
- Entity and relationship search
- Connections and shortest paths between entities
- Statistics, relationship types and pillars
- Autocomplete suggestions
- Health checks and Prometheus metrics

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "localhost", "Server host")
	serveCmd.Flags().Int("port", 8080, "Server port")
	serveCmd.Flags().String("mode", "debug", "Server mode (debug, release, test)")
	serveCmd.Flags().Bool("snapshot", false, "Restore from and save to the badger snapshot")
	serveCmd.Flags().String("telemetry-parquet-path", "", "Path to directory for error telemetry")

	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.mode", serveCmd.Flags().Lookup("mode"))
	viper.BindPFlag("snapshot.enabled", serveCmd.Flags().Lookup("snapshot"))
	viper.BindPFlag("telemetry.parquet_path", serveCmd.Flags().Lookup("telemetry-parquet-path"))
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.close(closeCtx)
	}()

	srv := server.New(a.cfg, a.client, a.logger)
	srv.Setup()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- srv.Start()
	}()

	select {
	case err := <-serverErrChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-sigChan:
		a.logger.Info("Received signal", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		if a.snap != nil {
			if _, err := a.snap.Save(shutdownCtx, a.client.Store()); err != nil {
				a.logger.Warn("Failed to save snapshot on shutdown", "error", err)
			}
		}
		a.logger.Info("Server stopped gracefully")
		return nil
	}
}
