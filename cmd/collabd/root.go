package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	viperlib "github.com/spf13/viper"

	"collabcore/pkg/logger"
	"collabcore/pkg/registry"
	"collabcore/pkg/tracing"
)

var (
	version = "dev"
	cfgFile string
	cfg     Config

	viper = viperlib.New()
)

var rootCmd = &cobra.Command{
	Use:     "collabd",
	Short:   "Reference relay for collabcore's text and whiteboard engines",
	Long:    "collabd assigns the server-authoritative mod_id order and rebroadcasts accepted edits; it exists to exercise and demonstrate pkg/textengine and pkg/whiteboard end to end, not as a production collaboration server.",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the relay HTTP/WebSocket server",
	RunE:  runServe,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./collabd.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")

	serveCmd.Flags().String("addr", "", "address to listen on")
	serveCmd.Flags().Duration("idle-expiration", 0, "how long an idle document survives before eviction")
	serveCmd.Flags().Bool("tracing-enabled", false, "enable OpenTelemetry tracing")
	serveCmd.Flags().String("tracing-exporter", "", "tracing exporter: stdout or none")

	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("idle_expiration", serveCmd.Flags().Lookup("idle-expiration"))
	_ = viper.BindPFlag("tracing_enabled", serveCmd.Flags().Lookup("tracing-enabled"))
	_ = viper.BindPFlag("tracing_exporter", serveCmd.Flags().Lookup("tracing-exporter"))

	rootCmd.AddCommand(serveCmd)
}

func initConfig() {
	defaults := Defaults()
	viper.SetDefault("addr", defaults.Addr)
	viper.SetDefault("idle_expiration", defaults.IdleExpiration)
	viper.SetDefault("cleanup_interval", defaults.CleanupInterval)
	viper.SetDefault("tracing_enabled", defaults.TracingEnabled)
	viper.SetDefault("tracing_exporter", defaults.TracingExporter)
	viper.SetDefault("log_level", defaults.LogLevel)

	viper.SetEnvPrefix("COLLABD")
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("collabd")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viperlib.ConfigFileNotFoundError); !notFound {
			fmt.Fprintf(os.Stderr, "collabd: error reading config: %v\n", err)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.New(parseLogLevel(cfg.LogLevel), os.Stderr)

	tracer, err := tracing.NewProvider(tracing.Config{
		Enabled:     cfg.TracingEnabled,
		Exporter:    cfg.TracingExporter,
		ServiceName: "collabd",
	})
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}

	reg := registry.New(
		registry.WithIdleExpiration(cfg.IdleExpiration),
		registry.WithLogger(log),
		registry.WithTracer(tracer.Tracer()),
	)

	srv := NewServer(reg, tracer, log)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("collabd: listening on %s", cfg.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("listen and serve: %w", err)
		}
	case <-ctx.Done():
		log.Info("collabd: shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("collabd: graceful shutdown failed: %v", err)
		}
		_ = srv.Shutdown(shutdownCtx)
		_ = tracer.Shutdown(shutdownCtx)
	}
	return nil
}

func parseLogLevel(s string) logger.Level {
	switch s {
	case "debug":
		return logger.LevelDebug
	case "warn", "warning":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	default:
		return logger.LevelInfo
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string, called from main with ldflags.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
