package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/reoring/schemareg"
	"github.com/reoring/schemareg/internal/config"
	"github.com/reoring/schemareg/internal/logging"
	"github.com/reoring/schemareg/middleware"
)

func (a *app) serveCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the validators listed in the config file over HTTP",
		Long: `Register the validators listed under "validators" in the config file and serve

  POST /validate/{key}           with the default engine
  POST /{engine}/validate/{key}  with a named engine
  GET  /validators               registered validators
  GET  /metrics                  Prometheus metrics
  GET  /healthz                  liveness`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context(), watch)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload validators when the config file changes")
	_ = a.v.BindPFlag("serve.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func (a *app) serve(ctx context.Context, watch bool) error {
	log := logging.WithComponent(a.log, "serve")
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reg := a.registry(schemareg.WithMetrics(schemareg.NewMetrics(promReg)))

	ls := &loadedSet{reg: reg, log: log}
	if err := ls.load(a.cfg, a.configDir()); err != nil {
		return err
	}
	if watch {
		if a.v.ConfigFileUsed() == "" {
			log.Warn().Msg("no config file to watch")
		} else {
			a.v.OnConfigChange(func(e fsnotify.Event) {
				cfg, err := config.Decode(a.v)
				if err != nil {
					log.Error().Err(err).Str("file", e.Name).Msg("config reload rejected")
					return
				}
				if err := ls.load(cfg, a.configDir()); err != nil {
					log.Error().Err(err).Str("file", e.Name).Msg("validator reload incomplete")
					return
				}
				log.Info().Str("file", e.Name).Msg("validators reloaded")
			})
			a.v.WatchConfig()
		}
	}

	def, err := a.engine()
	if err != nil {
		return err
	}
	call := schemareg.CallOptions{Greedy: a.cfg.Greedy}
	srv := &http.Server{
		Addr:         a.cfg.Serve.Addr,
		Handler:      newRouter(reg, promReg, def, call, log),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRouter(reg *schemareg.Registry, gatherer prometheus.Gatherer, def schemareg.Engine, call schemareg.CallOptions, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Get("/validators", func(w http.ResponseWriter, _ *http.Request) {
		out := map[schemareg.Engine][]schemareg.Info{}
		for eng := range reg.Stats() {
			infos := []schemareg.Info{}
			for _, k := range reg.Keys(eng) {
				if info, ok := reg.Info(eng, k); ok {
					infos = append(infos, info)
				}
			}
			out[eng] = infos
		}
		middleware.WriteJSON(w, http.StatusOK, out)
	})

	validated := func(eng schemareg.Engine) http.Handler {
		v := middleware.NewWithKeyFunc(reg, eng, func(r *http.Request) string {
			return chi.URLParam(r, "key")
		}, middleware.Options{Call: call, Logger: log})
		return v.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			middleware.WriteJSON(w, http.StatusOK, schemareg.Result{Success: true, Engine: eng})
		}))
	}
	r.Method(http.MethodPost, "/validate/{key}", validated(def))
	for eng := range reg.Stats() {
		r.Method(http.MethodPost, "/"+string(eng)+"/validate/{key}", validated(eng))
	}
	return r
}

type registration struct {
	engine schemareg.Engine
	key    string
}

// loadedSet keeps the registry in line with the validators of the current
// config: entries are created or replaced, and ones that disappeared from the
// config are deleted.
type loadedSet struct {
	mu     sync.Mutex
	reg    *schemareg.Registry
	log    zerolog.Logger
	loaded map[registration]bool
}

func (ls *loadedSet) load(cfg config.Config, baseDir string) error {
	defs, err := cfg.Definitions(baseDir)
	if err != nil {
		return err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	next := make(map[registration]bool, len(defs))
	var errs []error
	for _, d := range defs {
		id := registration{d.Engine, d.Key}
		if err := ls.reg.Create(d); err != nil {
			errs = append(errs, err)
			// The previous handle, if any, stays registered.
			next[id] = ls.loaded[id]
			continue
		}
		next[id] = true
	}
	for r := range ls.loaded {
		if !next[r] {
			ls.reg.Delete(r.engine, r.key)
		}
	}
	ls.loaded = next
	ls.log.Info().Int("validators", len(next)).Msg("validators registered")
	return errors.Join(errs...)
}
