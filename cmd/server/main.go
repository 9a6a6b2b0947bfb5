// Simulation Request Viewer Server
//
// Local development server with:
// - Static hosting of the viewer page and its assets
// - Recursive discovery of sim-requests-*.txt files (/api/scan)
// - Raw access to a single sim-requests file (/api/file)
// - SSE change notifications for a scan root (/api/events)
// - Optional Prometheus metrics listener
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/simviewer/simviewer/internal/api"
	"github.com/simviewer/simviewer/internal/config"
	"github.com/simviewer/simviewer/internal/logging"
	"github.com/simviewer/simviewer/internal/metrics"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	logger, _, err := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging init error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	printBanner(cfg)

	srv := api.NewServer(api.Config{
		WorkDir:       cfg.Directory,
		WatchInterval: cfg.WatchInterval,
		Version:       version,
	}, logger)

	// No WriteTimeout: /api/events responses stay open.
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metrics.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", zap.String("addr", cfg.MetricsAddr))
			if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
				logger.Error("metrics server error", zap.Error(err))
			}
		}()
	}

	go func() {
		logger.Info("server listening",
			zap.String("addr", httpServer.Addr),
			zap.String("directory", cfg.Directory),
			zap.String("version", version))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Warn("metrics server shutdown error", zap.Error(err))
		}
	}
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("server stopped")
}

func printBanner(cfg *config.Config) {
	title := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgHiBlack)
	url := color.New(color.FgGreen)

	base := fmt.Sprintf("http://%s", cfg.Addr())

	fmt.Println()
	title.Println("  Simulation Request Viewer")
	fmt.Println()
	label.Print("  Directory: ")
	fmt.Println(cfg.Directory)
	if cfg.ConfigFile != "" {
		label.Print("  Config:    ")
		fmt.Println(cfg.ConfigFile)
	}
	label.Print("  Viewer:    ")
	url.Println(base + "/request-viewer.html")
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    GET /api/scan?root=<dir>     - Find sim-requests files")
	fmt.Println("    GET /api/file?path=<file>    - Raw sim-requests file")
	fmt.Println("    GET /api/events?root=<dir>   - SSE file change events")
	fmt.Println("    GET /api/health              - Health check")
	if cfg.MetricsAddr != "" {
		fmt.Printf("    GET http://%s/metrics\n", cfg.MetricsAddr)
	}
	fmt.Println()
	color.New(color.FgYellow).Println("  Press Ctrl+C to stop the server")
	fmt.Println()
}
