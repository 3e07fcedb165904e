package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgalpaj/azure-throttling-exporter/internal/azure"
	"github.com/dgalpaj/azure-throttling-exporter/internal/config"
	"github.com/dgalpaj/azure-throttling-exporter/internal/logger"
	"github.com/dgalpaj/azure-throttling-exporter/internal/metrics"
	"github.com/dgalpaj/azure-throttling-exporter/internal/poller"
	"github.com/dgalpaj/azure-throttling-exporter/internal/server"
	"github.com/dgalpaj/azure-throttling-exporter/internal/version"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// DefaultShutdownTimeout is the maximum time to wait for graceful shutdown
	DefaultShutdownTimeout = 30 * time.Second

	// StartupProbeTimeout bounds the credential probe at boot
	StartupProbeTimeout = 1 * time.Minute
)

var configPath = flag.String("config", "config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	// Load configuration first (need log level from config). Missing
	// credentials fail here, before anything is scheduled.
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logger.New(cfg.LogLevel)
	logger.Info("Azure Throttling Exporter starting",
		"version", version.Version,
		"config_path", *configPath)

	logger.Info("Configuration loaded successfully",
		"subscription_id", cfg.SubscriptionID,
		"poll_interval_seconds", cfg.PollInterval,
		"http_port", cfg.HTTPPort,
		"resource_provider", cfg.ResourceProvider,
		"resource_type", cfg.ResourceType,
		"api_version", cfg.APIVersion,
		"connect_timeout_millis", cfg.ConnectTimeoutMillis,
		"max_consecutive_failures", cfg.FailureCeiling())

	// Create the Azure rate-limit client
	azureClient, err := azure.NewClient(cfg, logger.WithComponent("azure"))
	if err != nil {
		logger.Error("Failed to create Azure client", "error", err)
		os.Exit(1)
	}
	logger.Info("Azure client initialized", "target", azureClient.Target())

	// Verify credentials before the first poll cycle
	probeCtx, probeCancel := context.WithTimeout(context.Background(), StartupProbeTimeout)
	if err := azureClient.Probe(probeCtx); err != nil {
		probeCancel()
		logger.Error("Startup credential probe failed", "error", err)
		os.Exit(1)
	}
	probeCancel()
	logger.Info("Credentials verified")

	// Metrics registry and sink
	reg := prometheus.NewRegistry()
	sink := metrics.NewPrometheusSink(reg)

	// Register Go runtime metrics (memory, goroutines, GC stats)
	if err := reg.Register(prometheus.NewGoCollector()); err != nil {
		logger.Warn("Failed to register Go collector", "error", err)
	}

	// Register process metrics (CPU, memory, file descriptors)
	if err := reg.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{})); err != nil {
		logger.Warn("Failed to register process collector", "error", err)
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the poll loop
	p := poller.New(azureClient, sink, cfg.FailureCeiling(), logger.WithComponent("poller"))
	logger.Info("Starting poll loop")
	fatal := p.Start(ctx, time.Duration(cfg.PollInterval)*time.Second)

	// Create and start HTTP server
	srv := server.NewServer(cfg, p, reg, logger.WithComponent("server"))

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	// Wait for interrupt signal, server error, or poller escalation
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("Server error", "error", err)
		os.Exit(1)

	case err := <-fatal:
		logger.Error("Rate limit polling escalated, exiting", "error", err)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer shutdownCancel()
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Error("Error during server shutdown", "error", shutdownErr)
		}
		os.Exit(1)

	case sig := <-shutdown:
		logger.Info("Received shutdown signal, starting graceful shutdown", "signal", sig.String())

		// Cancel the poll loop
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during server shutdown", "error", err)
			// Force shutdown
			os.Exit(1)
		}

		logger.Info("Server stopped gracefully")
	}
}
