package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/filegate/filegate/auth"
	"github.com/filegate/filegate/backends"
	"github.com/filegate/filegate/backends/localfs"
	"github.com/filegate/filegate/backends/memfs"
	"github.com/filegate/filegate/backends/readonly"
	"github.com/filegate/filegate/backends/s3"
	"github.com/filegate/filegate/config"
	"github.com/filegate/filegate/gateway"
	"github.com/filegate/filegate/server"
)

var rootCmd = &cobra.Command{
	Use:   "filegate",
	Short: "FileGate - virtual filesystem gateway",
	Long: `FileGate exposes one or more storage backends (memory, local disk,
S3-compatible object stores) behind a single file-manager HTTP API.`,
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the FileGate server",
	Long:  "Start the FileGate server with the configured storage mounts and API endpoint",
	RunE:  runServer,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  "Validate the FileGate configuration and display the loaded settings",
	RunE:  validateConfig,
}

var configFilePath string

func main() {
	// Add flags to server command
	serverCmd.Flags().StringVarP(&configFilePath, "config", "c", "", "Path to configuration file")

	// Add subcommands
	configCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(serverCmd, configCmd)

	// If no command specified, default to server
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "server")
	}

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// runServer starts the FileGate server
func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfigFromFile(configFilePath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger, err := initializeLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to sync logger: %v\n", err)
		}
	}()

	logger.Info("Starting FileGate server",
		zap.String("listen_addr", cfg.Server.ListenAddr),
		zap.Int("mounts", len(cfg.Mounts)))

	// Initialize the authenticator: the access-code database wins over the
	// static key list when both are configured.
	var authenticator auth.Authenticator
	if cfg.Auth.AccessDB != "" {
		logger.Info("Initializing access-code authenticator", zap.String("db", cfg.Auth.AccessDB))
		sqliteAuth, err := auth.NewSQLiteAuthenticator(cfg.Auth.AccessDB, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize access database: %w", err)
		}
		defer sqliteAuth.Close()
		authenticator = sqliteAuth
	} else {
		logger.Info("Initializing API key authenticator", zap.Int("keys", len(cfg.Auth.APIKeys)))
		authenticator = auth.NewAPIKeyAuthenticator(cfg.Auth.APIKeys)
	}

	// Initialize the gateway and mount the configured backends
	gw := gateway.New(authenticator, corsHeaders(cfg.CORS), logger)
	for _, mount := range cfg.Mounts {
		fs, err := buildMount(mount, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize mount %q: %w", mount.Key, err)
		}
		defer fs.Close()
		gw.Register(mount.Key, fs)
		logger.Info("Mounted storage adapter",
			zap.String("key", mount.Key),
			zap.String("driver", mount.Driver),
			zap.Bool("read_only", mount.ReadOnly))
	}

	// Initialize HTTP router
	router := server.NewRouter(gw, &cfg.Server, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		var err error
		if cfg.Server.CertFile != "" && cfg.Server.KeyFile != "" {
			logger.Info("Starting HTTPS server", zap.String("addr", cfg.Server.ListenAddr))
			err = srv.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
		} else {
			logger.Info("Starting HTTP server", zap.String("addr", cfg.Server.ListenAddr))
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server exited gracefully")
	return nil
}

// buildMount constructs one storage adapter from its mount configuration.
func buildMount(mount config.MountConfig, logger *zap.Logger) (backends.FS, error) {
	var fs backends.FS
	switch mount.Driver {
	case "memory":
		mem := memfs.New()
		if len(mount.Seed) > 0 {
			if err := mem.Seed(mount.Seed); err != nil {
				return nil, fmt.Errorf("failed to seed memory mount: %w", err)
			}
		}
		fs = mem
	case "local":
		local, err := localfs.New(mount.RootPath)
		if err != nil {
			return nil, err
		}
		fs = local
	case "s3":
		s3fs, err := s3.New(s3.Options{
			Bucket:    mount.S3Bucket,
			Region:    mount.S3Region,
			AccessKey: mount.S3AccessKey,
			SecretKey: mount.S3SecretKey,
			Endpoint:  mount.S3Endpoint,
		}, logger)
		if err != nil {
			return nil, err
		}
		fs = s3fs
	default:
		return nil, fmt.Errorf("unknown driver %q", mount.Driver)
	}

	if mount.ReadOnly {
		fs = readonly.Wrap(fs)
	}
	return fs, nil
}

// corsHeaders flattens the CORS configuration into the header set the
// gateway attaches to every response.
func corsHeaders(c config.CORS) map[string]string {
	headers := make(map[string]string)
	if c.AllowOrigin != "" {
		headers["Access-Control-Allow-Origin"] = c.AllowOrigin
	}
	if c.AllowMethods != "" {
		headers["Access-Control-Allow-Methods"] = c.AllowMethods
	}
	if c.AllowHeaders != "" {
		headers["Access-Control-Allow-Headers"] = c.AllowHeaders
	}
	return headers
}

// validateConfig validates the FileGate configuration and displays settings
func validateConfig(cmd *cobra.Command, args []string) error {
	fmt.Println("Validating configuration...")

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Configuration validation failed: %v\n", err)
		return err
	}

	fmt.Println("Configuration is valid")
	fmt.Printf("Listen Address: %s\n", cfg.Server.ListenAddr)
	if cfg.Auth.AccessDB != "" {
		fmt.Printf("Access DB: %s\n", cfg.Auth.AccessDB)
	} else {
		fmt.Printf("API Keys: %d configured\n", len(cfg.Auth.APIKeys))
	}
	for _, m := range cfg.Mounts {
		fmt.Printf("Mount %q: driver=%s read_only=%v\n", m.Key, m.Driver, m.ReadOnly)
	}

	return nil
}

// initializeLogger creates a zap logger based on configuration
func initializeLogger(logCfg config.Log) (*zap.Logger, error) {
	var cfg zap.Config

	if logCfg.Format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	// Set log level
	switch logCfg.Level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return cfg.Build()
}
