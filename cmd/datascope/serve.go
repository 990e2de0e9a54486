package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/datascope/datascope/pkg/archive"
	"github.com/datascope/datascope/pkg/config"
	"github.com/datascope/datascope/pkg/jobs"
	"github.com/datascope/datascope/pkg/server"
	"github.com/datascope/datascope/pkg/telemetry"
)

var (
	servePort int
	serveHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the analysis API server",
	Long: `Start a local HTTP server exposing the analysis API.

The server provides:
  - Async dataset upload and analysis
  - Real-time progress streaming over SSE
  - Report retrieval, markdown export, and comparison
  - Static serving of profiling reports

Examples:
  datascope serve                    # Start on the configured port (8000)
  datascope serve --port 3000        # Start on a custom port
  datascope serve --host 0.0.0.0     # Listen on all interfaces`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to")

	rootCmd.AddCommand(serveCmd)
}

// newArchiveBackend builds the configured archive backend.
func newArchiveBackend(ctx context.Context, cfg *config.Config) (archive.Backend, error) {
	switch cfg.Archive.Backend {
	case "", "local":
		return archive.NewLocal(cfg.Archive.Dir), nil
	case "redis":
		rc := archive.DefaultRedisConfig(cfg.Archive.Redis.Address)
		rc.Password = cfg.Archive.Redis.Password
		rc.Database = cfg.Archive.Redis.Database
		if cfg.Archive.Redis.Prefix != "" {
			rc.Prefix = cfg.Archive.Redis.Prefix
		}
		if cfg.Archive.Redis.TTL != 0 {
			rc.TTL = cfg.Archive.Redis.TTL
		}
		return archive.NewRedis(rc)
	case "s3":
		sc := archive.DefaultS3Config(cfg.Archive.S3.Bucket)
		sc.Region = cfg.Archive.S3.Region
		sc.Endpoint = cfg.Archive.S3.Endpoint
		sc.UsePathStyle = cfg.Archive.S3.UsePathStyle
		if cfg.Archive.S3.Prefix != "" {
			sc.Prefix = cfg.Archive.S3.Prefix
		}
		return archive.NewS3(ctx, sc)
	default:
		return nil, fmt.Errorf("unknown archive backend: %s", cfg.Archive.Backend)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}

	logger := newLogger()
	defer logger.Sync()

	pipe := newPipeline(cfg, logger)

	if cfg.Telemetry.Enabled {
		otlpCfg := telemetry.DefaultOTLPConfig("datascope")
		if cfg.Telemetry.Endpoint != "" {
			otlpCfg.Endpoint = cfg.Telemetry.Endpoint
		}
		tracer, shutdown, err := telemetry.Init(cmd.Context(), otlpCfg)
		if err != nil {
			logger.Warn("telemetry init failed", zap.Error(err))
		} else {
			pipe.Tracer = tracer
			defer shutdown(context.Background())
		}
	}

	backend, err := newArchiveBackend(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to create archive backend: %w", err)
	}

	mgr := jobs.NewManager(pipe, backend, logger, cfg.Server.MaxConcurrentRuns)
	srv := server.NewServer(mgr, backend, server.Options{
		UploadDir:      cfg.Server.UploadDir,
		ReportsDir:     cfg.Server.ReportsDir,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Logger:         logger,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // Disable for SSE
		IdleTimeout:  120 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	url := fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	if cfg.Server.Host == "0.0.0.0" || cfg.Server.Host == "" {
		url = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
	fmt.Println()
	fmt.Printf("  DataScope server listening on %s\n", url)
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		cancel()
		httpServer.Shutdown(context.Background())
	}()

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != http.ErrServerClosed {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return nil
	}
}
