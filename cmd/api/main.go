// Package main starts the HTTP server that serves the data lineage graph
// API: snapshot graphs parsed from the legacy CSV, the selector state
// endpoints driving the rendered view, and the WebSocket engine bridge.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lineascope/core/cmd/api/middleware"
	"github.com/lineascope/core/internal/config"
	"github.com/lineascope/core/internal/dataset"
	"github.com/lineascope/core/internal/engine/ws"
	"github.com/lineascope/core/internal/handlers"
	"github.com/lineascope/core/internal/logging"
	"github.com/lineascope/core/internal/poscache"
	"github.com/lineascope/core/internal/render"
	"github.com/lineascope/core/internal/search"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:           "lineascope-api",
		Short:         "Serves the data lineage visualization API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&cfgFile, "config", "", "path to a config file (default lineascope.yaml)")
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	log, ring, err := logging.New(logging.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := dataset.NewStore(cfg.DataPath, log)
	if err != nil {
		return err
	}

	hub := ws.NewHub(log, cfg.CORSOrigin)
	defer hub.Close()

	controller := render.NewController(store, poscache.New(), hub.Factory(), log,
		render.WithGrace(cfg.PhysicsGrace, cfg.GraceLR))
	defer controller.Close()

	searcher := search.NewSearcher(controller, store, search.ParseScope(cfg.SearchScope), log)
	api := handlers.NewAPI(store, controller, searcher, ring, hub, log)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.Cors(cfg.CORSOrigin))
	r.Mount("/", api.Router())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Watch {
		eg.Go(func() error {
			return watchDataset(egctx, store, cfg.DataPath, log)
		})
	}

	eg.Go(func() error {
		log.Infow("Server starting", "addr", cfg.ListenAddr, "data", cfg.DataPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Infow("Shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// watchDataset reloads the store when the CSV changes. Edits land debounced,
// since editors write in bursts.
func watchDataset(ctx context.Context, store *dataset.Store, path string, log *zap.SugaredLogger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file, which drops a
	// watch set on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return errors.Wrapf(err, "watch %s", filepath.Dir(path))
	}

	target := filepath.Clean(path)
	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(100*time.Millisecond, func() {
				if err := store.Reload(); err != nil {
					log.Warnw("Dataset reload failed", "error", err)
					return
				}
				log.Infow("Dataset reloaded", "path", path)
			})
		case err := <-watcher.Errors:
			log.Warnw("Watcher error", "error", err)
		}
	}
}
