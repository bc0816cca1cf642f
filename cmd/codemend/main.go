package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sajidashaik44/AI-error-fixer/internal/config"
	"github.com/sajidashaik44/AI-error-fixer/internal/fixer"
	"github.com/sajidashaik44/AI-error-fixer/internal/inference"
	"github.com/sajidashaik44/AI-error-fixer/internal/server"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "codemend",
	Short: "codemend - consolidated compiler/runtime error repair service",
	Long: `codemend accepts batches of error reports tied to a single source file
and produces one consolidated repair with a primary and an alternative
candidate fix.

Fixes are generated through a local Ollama endpoint when reachable, with a
deterministic rule-based fallback, and cached by batch fingerprint.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// serveCmd runs the HTTP service
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the error-fixer HTTP service",
	Long: `Starts the HTTP service:

  POST /fix-errors-consolidated  consolidated batch repair
  POST /fix-error                single-error convenience endpoint
  GET  /health                   liveness plus cache statistics
  GET  /cache/stats              cache statistics
  POST /cache/clear              reset the fix cache`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	client := inference.NewClient(inference.Config{
		Endpoint:        cfg.Inference.Endpoint,
		Model:           cfg.Inference.Model,
		ProbeTimeout:    cfg.Inference.ProbeTimeoutDuration(),
		GenerateTimeout: cfg.Inference.GenerateTimeoutDuration(),
	}, logger.Named("inference"))

	cache := fixer.NewCache(cfg.Cache.MaxSize)
	orchestrator := fixer.NewOrchestrator(cache, client, logger.Named("fixer"))

	srv := server.New(cfg.Server.Addr, orchestrator, client, cfg.Server.MaxBatchSize, logger.Named("http"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return <-errCh
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "codemend.yaml", "Path to config file")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
