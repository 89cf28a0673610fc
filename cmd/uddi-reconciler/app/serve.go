package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gatewaymesh/uddi-reconciler/internal/api"
	"github.com/gatewaymesh/uddi-reconciler/internal/audit"
	"github.com/gatewaymesh/uddi-reconciler/internal/cluster"
	"github.com/gatewaymesh/uddi-reconciler/internal/config"
	"github.com/gatewaymesh/uddi-reconciler/internal/coordinator"
	"github.com/gatewaymesh/uddi-reconciler/internal/gateway"
	"github.com/gatewaymesh/uddi-reconciler/internal/metricsagg"
	"github.com/gatewaymesh/uddi-reconciler/internal/store"
	"github.com/gatewaymesh/uddi-reconciler/internal/store/inmemory"
	"github.com/gatewaymesh/uddi-reconciler/internal/store/postgres"
	"github.com/gatewaymesh/uddi-reconciler/internal/tasks"
	"github.com/gatewaymesh/uddi-reconciler/internal/telemetry"
	"github.com/gatewaymesh/uddi-reconciler/internal/uddi"
	"github.com/gatewaymesh/uddi-reconciler/internal/workflows/monitor"
	"github.com/gatewaymesh/uddi-reconciler/internal/workflows/policy"
	"github.com/gatewaymesh/uddi-reconciler/internal/workflows/publish"
	"github.com/gatewaymesh/uddi-reconciler/internal/workflows/servicemetrics"
	"github.com/gatewaymesh/uddi-reconciler/internal/workflows/subscription"
	"github.com/gatewaymesh/uddi-reconciler/internal/wsdl"

	"go.opentelemetry.io/otel"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reconciler server",
	Long: `Start the reconciler server.

The server requires a configuration file (--config) that specifies:
- The cluster's externally reachable hostname and port
- Database connection settings (omit for --ephemeral runs)
- Reconciler tuning (subscription expiry, renew threshold)`,
	RunE: runServe,
}

const (
	defaultGracefulTimeout = 30 * time.Second // Kubernetes-friendly shutdown time
	serverRequestTimeout   = 10 * time.Second // Notification endpoint should respond quickly
	serverReadTimeout      = 10 * time.Second // Enough for headers and notification bodies
	serverWriteTimeout     = 15 * time.Second // Must be > serverRequestTimeout to let middleware handle timeout
	serverIdleTimeout      = 60 * time.Second // Keep connections alive for reuse
)

func init() {
	serveCmd.Flags().String("address", "", "Address to listen on (overrides config)")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	serveCmd.Flags().Bool("ephemeral", false, "Run with an in-memory store, ignoring database config")

	for _, name := range []string{"address", "config", "ephemeral"} {
		if err := viper.BindPFlag(name, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind %s flag: %v", name, err))
		}
	}

	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		panic(fmt.Sprintf("failed to mark config flag as required: %v", err))
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	configPath := viper.GetString("config")
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	address := viper.GetString("address")
	if address == "" {
		address = cfg.GetAddress()
	}
	slog.Info("Starting UDDI reconciler server",
		"address", address,
		"cluster_hostname", cfg.Cluster.Hostname)

	var (
		stores store.Stores
		tx     store.TxRunner
	)
	if viper.GetBool("ephemeral") || cfg.Database == nil {
		slog.Info("Using ephemeral in-memory store")
		mem := inmemory.New()
		stores, tx = mem.Stores(), mem
	} else {
		db, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		stores, tx = db.Stores(), db
	}

	taskMetrics, err := telemetry.NewTaskMetrics(otel.GetMeterProvider())
	if err != nil {
		return fmt.Errorf("failed to create task metrics: %w", err)
	}
	sweepMetrics, err := telemetry.NewSweepMetrics(otel.GetMeterProvider())
	if err != nil {
		return fmt.Errorf("failed to create sweep metrics: %w", err)
	}

	resolver := cluster.StaticResolver{Host: cfg.Cluster.Hostname, Port: cfg.Cluster.Port}
	clients := uddi.NewHTTPFactory()
	catalog := gateway.NewStaticCatalog()
	converter := wsdl.NewConverter()
	aggregator := metricsagg.NewRecorder()

	var subOpts []subscription.Option
	if d := cfg.SubscriptionExpiry(); d > 0 {
		subOpts = append(subOpts, subscription.WithExpiryInterval(d))
	}
	if d := cfg.RenewThreshold(); d > 0 {
		subOpts = append(subOpts, subscription.WithRenewThreshold(d))
	}

	builders := []tasks.Builder{
		subscription.NewBuilder(clients, subOpts...),
		publish.NewBuilder(clients, converter, catalog, resolver),
		policy.NewBuilder(clients, resolver),
		servicemetrics.NewBuilder(aggregator),
		monitor.NewBuilder(clients),
	}

	coordOpts := []coordinator.Option{
		coordinator.WithTaskMetrics(taskMetrics),
		coordinator.WithSweepMetrics(sweepMetrics),
	}
	if d := cfg.MetricsCleanupInterval(); d > 0 {
		coordOpts = append(coordOpts, coordinator.WithMetricsCleanupInterval(d))
	}
	if d := cfg.PolicySweepInterval(); d > 0 {
		coordOpts = append(coordOpts, coordinator.WithPolicySweepInterval(d))
	}

	coord := coordinator.New(
		stores,
		tx,
		coordinator.NewEndpointResolver(catalog, clients, resolver),
		audit.NewLogSink(),
		builders,
		coordOpts...,
	)

	coordCtx, coordCancel := context.WithCancel(context.Background())
	defer coordCancel()
	go func() {
		if err := coord.Start(coordCtx); err != nil {
			slog.Error("Coordinator failed", "error", err)
		}
	}()

	router := api.NewServer(coord,
		api.WithMiddlewares(
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(serverRequestTimeout),
			api.LoggingMiddleware,
		),
	)

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		slog.Info("Shutting down server", "signal", sig.String())
	case err := <-serveErr:
		slog.Error("Server failed", "error", err)
		return err
	}

	if err := coord.Stop(); err != nil {
		slog.Error("Failed to stop coordinator", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		return err
	}

	slog.Info("Server shutdown complete")
	return nil
}
