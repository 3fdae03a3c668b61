// Command oscquery-server is a reference OSCQuery server.
//
// This command demonstrates a complete OSCQuery-compliant server with:
//   - CLI argument parsing
//   - Configuration file support
//   - A demo synthesizer namespace
//   - mDNS discovery advertising
//   - An interactive shell for live namespace edits
//
// Usage:
//
//	oscquery-server [flags]
//
// Flags:
//
//	-config string        Configuration file path (YAML)
//	-name string          Advertised server name
//	-http string          HTTP listen address (default "0.0.0.0:3000")
//	-osc string           OSC UDP listen address, empty disables OSC
//	-mdns                 Advertise over mDNS (default true)
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-protocol-log string  Protocol event log file (.qlog)
//	-demo                 Populate the demo namespace (default true)
//	-interactive          Run the interactive shell (default true)
//
// Examples:
//
//	# Start with default settings and the demo namespace
//	oscquery-server
//
//	# Start from a config file without the shell
//	oscquery-server -config /etc/oscquery/server.yaml -interactive=false
//
//	# Capture protocol traffic for later inspection
//	oscquery-server -protocol-log session.qlog -log-level debug
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/oscquery/oscquery-go/cmd/oscquery-server/interactive"
	"github.com/oscquery/oscquery-go/pkg/config"
	"github.com/oscquery/oscquery-go/pkg/log"
	"github.com/oscquery/oscquery-go/pkg/model"
	"github.com/oscquery/oscquery-go/pkg/server"
	"github.com/oscquery/oscquery-go/pkg/tree"
)

var (
	flagConfig      = flag.String("config", "", "Configuration file path (YAML)")
	flagName        = flag.String("name", "", "Advertised server name")
	flagHTTP        = flag.String("http", "", "HTTP listen address")
	flagOSC         = flag.String("osc", "", "OSC UDP listen address")
	flagMDNS        = flag.Bool("mdns", true, "Advertise over mDNS")
	flagLogLevel    = flag.String("log-level", "", "Log level: debug, info, warn, error")
	flagProtoLog    = flag.String("protocol-log", "", "Protocol event log file (.qlog)")
	flagDemo        = flag.Bool("demo", true, "Populate the demo namespace")
	flagInteractive = flag.Bool("interactive", true, "Run the interactive shell")
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		return 1
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		return 1
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	srv, err := server.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create server: %v\n", err)
		return 1
	}
	srv.SetLogger(logger)

	protoLog, closeProtoLog, err := buildProtocolLogger(cfg, level, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open protocol log: %v\n", err)
		return 1
	}
	if protoLog != nil {
		srv.SetProtocolLogger(protoLog)
		defer closeProtoLog()
	}

	if *flagDemo {
		if err := buildDemoNamespace(srv); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to build demo namespace: %v\n", err)
			return 1
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		return 1
	}
	logger.Info("listening", "http", srv.HTTPAddr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if *flagInteractive {
		shell, err := interactive.New(srv)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create shell: %v\n", err)
			_ = srv.Stop()
			return 1
		}
		go shell.Run(ctx, cancel)

		select {
		case <-ctx.Done():
		case sig := <-sigCh:
			logger.Info("received signal", "signal", sig.String())
			cancel()
		}
	} else {
		sig := <-sigCh
		logger.Info("received signal", "signal", sig.String())
	}

	if err := srv.Stop(); err != nil {
		logger.Error("shutdown error", "error", err)
		return 1
	}
	return 0
}

// loadConfig reads the config file when given, then applies flag
// overrides on top. Flags left at their defaults do not override.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if *flagConfig != "" {
		var err error
		cfg, err = config.Load(*flagConfig)
		if err != nil {
			return config.Config{}, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			cfg.Name = *flagName
		case "http":
			cfg.HTTPAddr = *flagHTTP
		case "osc":
			cfg.OSCAddr = *flagOSC
		case "mdns":
			cfg.MDNS = *flagMDNS
		case "log-level":
			cfg.LogLevel = *flagLogLevel
		case "protocol-log":
			cfg.ProtocolLog = *flagProtoLog
		}
	})

	return cfg, cfg.Validate()
}

// buildProtocolLogger assembles the protocol event logger: a .qlog
// file when configured, and an echo of every event onto the console
// logger at debug level. Returns a nil logger when neither applies.
func buildProtocolLogger(cfg config.Config, level slog.Level, logger *slog.Logger) (log.Logger, func(), error) {
	var loggers []log.Logger
	closeFn := func() {}

	if level <= slog.LevelDebug {
		loggers = append(loggers, log.NewSlogAdapter(logger))
	}
	if cfg.ProtocolLog != "" {
		fl, err := log.NewFileLogger(cfg.ProtocolLog)
		if err != nil {
			return nil, nil, err
		}
		loggers = append(loggers, fl)
		closeFn = func() {
			if err := fl.Close(); err != nil {
				logger.Error("close protocol log", "error", err)
			}
		}
	}

	switch len(loggers) {
	case 0:
		return nil, nil, nil
	case 1:
		return loggers[0], closeFn, nil
	default:
		return log.NewMultiLogger(loggers...), closeFn, nil
	}
}

// buildDemoNamespace populates a small synthesizer namespace that
// exercises ranges, clipping, units and access modes.
func buildDemoNamespace(srv *server.Server) error {
	nodes := []struct {
		path string
		spec tree.Spec
	}{
		{"/synth", tree.Container("demo synthesizer")},
		{"/synth/freq", tree.Spec{
			Access:      model.AccessReadWrite,
			Description: "oscillator frequency",
			Values:      []model.Value{model.Float32(440)},
			Slots: []model.Slot{{
				Range: model.MinMax(20, 20000),
				Clip:  model.ClipBoth,
				Unit:  "frequency.hz",
			}},
		}},
		{"/synth/gain", tree.Spec{
			Access:      model.AccessReadWrite,
			Description: "output gain",
			Values:      []model.Value{model.Float32(0.5)},
			Slots: []model.Slot{{
				Range: model.MinMax(0, 1),
				Clip:  model.ClipBoth,
				Unit:  "gain.linear",
			}},
		}},
		{"/synth/gate", tree.Spec{
			Access:      model.AccessWriteOnly,
			Description: "note gate",
			Values:      []model.Value{model.Bool(false)},
		}},
		{"/synth/label", tree.Spec{
			Access: model.AccessReadOnly,
			Values: []model.Value{model.String("demo synth")},
		}},
		{"/mixer/channels", tree.Spec{
			Access: model.AccessReadWrite,
			Values: []model.Value{model.Int32(0), model.Float32(0)},
			Slots: []model.Slot{
				{Range: model.MinMax(0, 15), Clip: model.ClipBoth},
				{Range: model.MinMax(-60, 12), Clip: model.ClipBoth, Unit: "gain.decibel"},
			},
		}},
	}

	for _, n := range nodes {
		if err := srv.AddNode(n.path, n.spec); err != nil {
			return fmt.Errorf("add %s: %w", n.path, err)
		}
	}
	return nil
}
