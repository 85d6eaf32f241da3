package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"avlgateway/config"
	"avlgateway/gateway"
	"avlgateway/session"
	"avlgateway/sink"
	"avlgateway/status"
	"avlgateway/telemetry"
)

// Version info - increment based on change magnitude:
// Major (x.0.0): Breaking changes
// Minor (0.y.0): New features
// Patch (0.0.z): Bug fixes
var Version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "Path to optional YAML config overlay")
	showVersion := flag.Bool("version", false, "Print version and exit")
	logLevel := flag.String("log-level", "", "Override LOG_LEVEL (trace|debug|info|warn|error)")
	flag.Parse()

	if *showVersion {
		os.Stdout.WriteString("avlgateway v" + Version + "\n")
		return
	}

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	log.Infof("Starting avlgateway v%s", Version)
	log.Infof("  TCP port: %d", cfg.TCPPort)
	log.Infof("  Status port: %d", cfg.StatusPort)
	log.Infof("  Fleet API: %s", cfg.FleetAPIURL)
	log.Infof("  Sink queue size: %d", cfg.SinkQueueSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Shutting down...")
		cancel()
	}()

	tp, err := telemetry.New(cfg.OTelExporter)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}
	defer tp.Shutdown(context.Background())

	registry := session.NewRegistry()
	dispatcher := sink.NewDispatcher(cfg.FleetAPIURL, cfg.SharedSecret, cfg.SinkQueueSize, tp)
	supervisor := gateway.New(cfg.TCPPort, cfg.IdleTimeout, registry, dispatcher, tp)
	statusSrv := status.New(cfg.StatusPort, registry)

	go dispatcher.Run(ctx)
	go func() {
		if err := supervisor.Run(ctx); err != nil {
			log.Fatalf("gateway supervisor error: %v", err)
		}
	}()

	if err := statusSrv.Run(ctx); err != nil {
		log.Fatalf("status server error: %v", err)
	}
}
