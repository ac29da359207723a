package cli

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/adsim/internal/control"
	"github.com/vietddude/adsim/internal/core/config"
)

var (
	cfgPath string
	isDebug bool
	sandbox bool
)

var rootCmd = &cobra.Command{
	Use:   "simulator",
	Short: "Ad audience simulation service",
	Long: `Simulator shows an advertisement to synthetic personas through a generative model
and aggregates their reactions. Batches always complete, falling back to synthetic
outcomes when the model is unavailable.`,
	Run: runServe,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&sandbox, "sandbox", false, "use the offline sandbox responder")
}

// loadConfig reads .env and the config file, then sets up logging.
func loadConfig() *config.AppConfig {
	_ = godotenv.Load()

	var overrides []config.Override
	if sandbox {
		overrides = append(overrides, func(c *config.AppConfig) { c.Sandbox.Enabled = true })
	}

	cfg, err := config.Load(cfgPath, overrides...)
	if errors.Is(err, fs.ErrNotExist) && sandbox {
		// A sandbox run needs no config file.
		cfg, err = config.Default(), nil
		cfg.Sandbox.Enabled = true
	}
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogging(cfg.Logging)
	return cfg
}

func setupLogging(cfg config.LoggingConfig) {
	slogLevel, _ := cfg.SlogLevel()
	if isDebug {
		slogLevel = slog.LevelDebug
	}

	if cfg.JSON() {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel})))
		return
	}
	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := control.NewApp(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize simulator", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := app.Start(ctx); err != nil {
		slog.Error("Failed to start simulator", "error", err)
		os.Exit(1)
	}

	slog.Info("Simulator running", "config", cfgPath)

	sig := <-sigChan
	slog.Info("Received signal, shutting down...", "signal", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}
}
