package main

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/mystbuilder/internal/config"
	"git.home.luguber.info/inful/mystbuilder/internal/logfields"
	"git.home.luguber.info/inful/mystbuilder/internal/metrics"
)

// runWatch rebuilds stale documents whenever the source tree changes. File
// events are debounced; an optional interval schedule forces periodic full
// rebuilds; a Prometheus endpoint is served when configured.
func runWatch(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var rec metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Listen != "" {
		registry := prom.NewRegistry()
		rec = metrics.NewPrometheusRecorder(registry)
		go serveMetrics(ctx, cfg.Metrics.Listen, registry)
	}

	b, cleanup, err := newBuilder(ctx, cfg, rec)
	if err != nil {
		return err
	}
	defer cleanup()

	// Initial pass so the watcher starts from a converged state.
	if _, err := b.BuildAll(ctx, uuid.NewString(), false); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watchRecursive(watcher, cfg.Source.Directory); err != nil {
		return err
	}

	rebuild := make(chan struct{}, 1)
	trigger := func() {
		select {
		case rebuild <- struct{}{}:
		default:
		}
	}

	var scheduler gocron.Scheduler
	if cfg.Watch.Every > 0 {
		scheduler, err = gocron.NewScheduler()
		if err != nil {
			return err
		}
		if _, err := scheduler.NewJob(
			gocron.DurationJob(cfg.Watch.Every),
			gocron.NewTask(trigger),
		); err != nil {
			return err
		}
		scheduler.Start()
		defer func() { _ = scheduler.Shutdown() }()
	}

	slog.Info("Watching for changes", logfields.Source(cfg.Source.Directory), "debounce", cfg.Watch.Debounce)

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watchRecursive(watcher, event.Name)
				}
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(cfg.Watch.Debounce, trigger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		case <-rebuild:
			buildID := uuid.NewString()
			slog.Debug("Change detected, rebuilding", logfields.BuildID(buildID))
			if _, err := b.BuildAll(ctx, buildID, false); err != nil {
				slog.Error("Rebuild failed", logfields.BuildID(buildID), logfields.Error(err))
			}
		}
	}
}

// watchRecursive adds dir and every subdirectory to the watcher.
func watchRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return watcher.Add(path)
	})
}

func serveMetrics(ctx context.Context, listen string, registry *prom.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(registry))
	server := &http.Server{Addr: listen, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	slog.Info("Serving metrics", "listen", listen)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Metrics server failed", "error", err)
	}
}
