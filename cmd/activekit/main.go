// Package main implements the entry point for the activekit runtime: a
// deployment of active components (the math sender/receiver pair) driven by
// rate group schedulers, with events and telemetry fanned out to the
// configured sinks.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360/activekit/assembly"
	"github.com/c360/activekit/component"
	"github.com/c360/activekit/event"
	"github.com/c360/activekit/mathops"
	"github.com/c360/activekit/metric"
	"github.com/c360/activekit/sink/logsink"
	"github.com/c360/activekit/sink/natssink"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "activekit"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, logger, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	cfg, err := initializeConfiguration(cliCfg)
	if err != nil {
		return err
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	ctx := context.Background()

	sink, nc, err := setupSinks(cfg, logger)
	if err != nil {
		return err
	}
	if nc != nil {
		defer nc.Close()
	}

	metricsRegistry := metric.NewMetricsRegistry()
	deps := component.Dependencies{
		Sink:            sink,
		MetricsRegistry: metricsRegistry,
		Logger:          logger,
	}

	asm, err := buildAssembly(cfg, deps, logger)
	if err != nil {
		return err
	}

	if err := asm.Initialize(); err != nil {
		return fmt.Errorf("initialize assembly: %w", err)
	}

	receiver := asm.Component("mathReceiver").(*mathops.Receiver)
	if cfg.ParamFile != "" {
		if err := loadParams(receiver, cfg.ParamFile, logger); err != nil {
			return err
		}
		defer saveParams(receiver, cfg.ParamFile, logger)
	}

	httpServer := setupHTTPServer(cfg, metricsRegistry, asm, logger)
	if httpServer != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpServer.Shutdown(shutdownCtx)
		}()
	}

	return runWithSignalHandling(ctx, asm, cliCfg.ShutdownTimeout)
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, *slog.Logger, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting activekit (active component runtime)",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, logger, false, nil
}

// initializeConfiguration loads and validates the deployment configuration
func initializeConfiguration(cliCfg *CLIConfig) (assembly.Config, error) {
	if cliCfg.ConfigPath == "" {
		return assembly.DefaultConfig(), nil
	}

	cfg, err := assembly.LoadConfig(cliCfg.ConfigPath)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// setupSinks builds the event/telemetry sink chain: slog always, NATS when a
// URL is configured.
func setupSinks(cfg assembly.Config, logger *slog.Logger) (event.Sink, *nats.Conn, error) {
	logSink := logsink.New(logger)

	if cfg.NATS.URL == "" {
		return logSink, nil, nil
	}

	slog.Info("Connecting to NATS", "url", cfg.NATS.URL)
	nc, err := nats.Connect(cfg.NATS.URL,
		nats.Name(appName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}

	natsSink, err := natssink.New(nc, cfg.NATS.Prefix, logger)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("create NATS sink: %w", err)
	}

	return event.NewMultiSink(logSink, natsSink), nc, nil
}

// buildAssembly creates the component pair from the factory registry, wires
// the ports, attaches rate groups, and seals the result.
func buildAssembly(cfg assembly.Config, deps component.Dependencies, logger *slog.Logger) (*assembly.Assembly, error) {
	registry := component.NewRegistry()
	if err := mathops.Register(registry); err != nil {
		return nil, fmt.Errorf("register factories: %w", err)
	}
	slog.Info("component factories registered", "factories", registry.Factories())

	componentCfg := map[string]any{"queue_capacity": cfg.QueueCapacity}

	senderComp, err := registry.Create("mathSender", mathops.TypeSender, componentCfg, deps)
	if err != nil {
		return nil, fmt.Errorf("create sender: %w", err)
	}
	receiverComp, err := registry.Create("mathReceiver", mathops.TypeReceiver, componentCfg, deps)
	if err != nil {
		return nil, fmt.Errorf("create receiver: %w", err)
	}

	sender := senderComp.(*mathops.Sender)
	receiver := receiverComp.(*mathops.Receiver)

	// Port wiring: requests flow sender -> receiver, results flow back.
	if err := sender.MathOpOut().Connect(receiver.MathOpIn()); err != nil {
		return nil, fmt.Errorf("wire mathOpOut: %w", err)
	}
	if err := receiver.MathResultOut().Connect(sender.MathResultIn()); err != nil {
		return nil, fmt.Errorf("wire mathResultOut: %w", err)
	}

	asm := assembly.New(cfg.Name, logger)
	if err := asm.Add("mathSender", sender); err != nil {
		return nil, err
	}
	if err := asm.Add("mathReceiver", receiver); err != nil {
		return nil, err
	}

	for _, rgCfg := range cfg.RateGroups {
		rg := assembly.NewRateGroup(rgCfg.Name, rgCfg.Period, logger)
		rg.AddMember(sender)
		rg.AddMember(receiver)
		if err := asm.AddRateGroup(rg); err != nil {
			return nil, err
		}
	}

	asm.Seal()
	return asm, nil
}

// loadParams applies a persisted parameter file to the receiver's store.
// A missing file on first boot is not an error; defaults remain in effect.
func loadParams(receiver *mathops.Receiver, path string, logger *slog.Logger) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info("parameter file not found, using defaults", "path", path)
		return nil
	}

	if err := receiver.Params().Load(path); err != nil {
		return fmt.Errorf("load parameters: %w", err)
	}
	logger.Info("parameters loaded", "path", path)
	return nil
}

// saveParams persists explicitly-set parameter values on shutdown.
func saveParams(receiver *mathops.Receiver, path string, logger *slog.Logger) {
	if err := receiver.Params().Save(path); err != nil {
		logger.Error("parameter save failed", "path", path, "error", err)
		return
	}
	logger.Info("parameters saved", "path", path)
}

// setupHTTPServer serves Prometheus metrics and assembly health. Returns nil
// when the HTTP address is disabled.
func setupHTTPServer(
	cfg assembly.Config,
	metricsRegistry *metric.MetricsRegistry,
	asm *assembly.Assembly,
	logger *slog.Logger,
) *http.Server {
	if cfg.HTTPAddr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		metricsRegistry.PrometheusRegistry(),
		promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		report := asm.Health()
		w.Header().Set("Content-Type", "application/json")
		if !report.Healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(report)
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	return server
}

// runWithSignalHandling starts the assembly and handles shutdown signals
func runWithSignalHandling(ctx context.Context, asm *assembly.Assembly, shutdownTimeout time.Duration) error {
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	if err := asm.Start(signalCtx); err != nil {
		return fmt.Errorf("start assembly: %w", err)
	}
	slog.Info("activekit started successfully")

	<-signalCtx.Done()
	slog.Info("Received shutdown signal")

	if err := asm.Stop(shutdownTimeout); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("activekit shutdown complete")
	return nil
}
