package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/mystbuilder/internal/buildstate"
	"git.home.luguber.info/inful/mystbuilder/internal/builder"
	"git.home.luguber.info/inful/mystbuilder/internal/config"
	"git.home.luguber.info/inful/mystbuilder/internal/events"
	"git.home.luguber.info/inful/mystbuilder/internal/logfields"
	"git.home.luguber.info/inful/mystbuilder/internal/metrics"
	"git.home.luguber.info/inful/mystbuilder/internal/source"
	"git.home.luguber.info/inful/mystbuilder/internal/version"
)

var CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"mystbuilder.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `help:"Print version and exit"`

	Build struct {
		Force bool `short:"f" help:"Rebuild every document regardless of build state"`
	} `cmd:"" help:"Build MyST document artifacts from the configured source tree"`

	Watch struct {
	} `cmd:"" help:"Watch the source tree and rebuild stale documents on change"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`
}

func main() {
	kctx := kong.Parse(&CLI, kong.Vars{"version": version.String()})

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	switch kctx.Command() {
	case "build":
		cfg, err := config.Load(CLI.Config)
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		if err := runBuild(cfg, CLI.Build.Force); err != nil {
			slog.Error("Build failed", "error", err)
			os.Exit(1)
		}
	case "watch":
		cfg, err := config.Load(CLI.Config)
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		if err := runWatch(cfg); err != nil {
			slog.Error("Watch failed", "error", err)
			os.Exit(1)
		}
	case "init":
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Configuration written", "path", CLI.Config)
	}
}

// newBuilder wires the builder with state store, metrics, and the optional
// event publisher. The returned cleanup closes everything.
func newBuilder(ctx context.Context, cfg *config.Config, rec metrics.Recorder) (*builder.Builder, func(), error) {
	workspace, err := os.MkdirTemp("", "mystbuilder-*")
	if err != nil {
		return nil, nil, err
	}

	sourceDir, err := source.Resolve(ctx, &cfg.Source, workspace)
	if err != nil {
		_ = os.RemoveAll(workspace)
		return nil, nil, err
	}

	statePath := cfg.Output.StatePath
	if statePath == "" {
		if err := os.MkdirAll(cfg.Output.Directory, 0o755); err != nil {
			_ = os.RemoveAll(workspace)
			return nil, nil, err
		}
		statePath = cfg.Output.Directory + "/.mystbuilder.db"
	}
	state, err := buildstate.Open(statePath)
	if err != nil {
		_ = os.RemoveAll(workspace)
		return nil, nil, err
	}

	opts := []builder.Option{builder.WithRecorder(rec)}
	var pub *events.NATSPublisher
	if cfg.Events.Enabled {
		pub, err = events.NewNATSPublisher(&cfg.Events)
		if err != nil {
			// Event publishing is best effort: build without it.
			slog.Warn("Event publishing disabled", logfields.Error(err))
		} else {
			opts = append(opts, builder.WithPublisher(pub))
		}
	}

	b := builder.New(cfg, sourceDir, state, opts...)
	cleanup := func() {
		pub.Close()
		_ = state.Close()
		_ = os.RemoveAll(workspace)
	}
	return b, cleanup, nil
}

func runBuild(cfg *config.Config, force bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	b, cleanup, err := newBuilder(ctx, cfg, metrics.NoopRecorder{})
	if err != nil {
		return err
	}
	defer cleanup()

	buildID := uuid.NewString()
	slog.Info("Starting build", logfields.BuildID(buildID), logfields.Source(cfg.Source.Directory))

	_, err = b.BuildAll(ctx, buildID, force)
	return err
}
