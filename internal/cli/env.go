package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/auth"
	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/blob"
	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/config"
	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/core"
	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/state"
)

// Env is everything a command needs: the loaded domain store, the user
// directory and the current session, all sharing one blob backend.
type Env struct {
	Config   config.Config
	Blob     blob.Store
	Repo     *state.Repository
	Service  *core.Service
	Users    *auth.Directory
	Session  *auth.Session
	Registry *prometheus.Registry
	Logger   *slog.Logger
	Now      func() time.Time

	ownsBlob bool
}

// EnvOptions overrides the collaborators OpenEnv would otherwise build.
type EnvOptions struct {
	// Store replaces the backend named by Config.Blob. The caller keeps
	// ownership and Env.Close leaves it open.
	Store blob.Store
	// Logs receives structured logs; defaults to os.Stderr.
	Logs io.Writer
	// Trace, when set, receives one JSON line per service operation.
	Trace io.Writer
	Now   func() time.Time
}

// OpenEnv wires the backend, loads the persisted state and restores the
// session.
func OpenEnv(ctx context.Context, cfg config.Config, opts EnvOptions) (*Env, error) {
	env := &Env{Config: cfg, Now: opts.Now}
	if env.Now == nil {
		env.Now = time.Now
	}
	env.Logger = newLogger(cfg.Log, opts.Logs)

	if opts.Store != nil {
		env.Blob = opts.Store
	} else {
		store, err := blob.Open(ctx, cfg.Blob)
		if err != nil {
			return nil, fmt.Errorf("open %s blob store: %w", cfg.Blob.Driver, err)
		}
		env.Blob = store
		env.ownsBlob = true
	}

	if err := env.build(ctx, opts.Trace); err != nil {
		if env.ownsBlob {
			_ = blob.Close(env.Blob)
		}
		return nil, err
	}
	return env, nil
}

func (e *Env) build(ctx context.Context, trace io.Writer) error {
	e.Repo = state.NewRepository(e.Blob, state.WithPrefix(e.Config.Prefix), state.WithLogger(e.Logger))

	e.Registry = prometheus.NewRegistry()
	metrics, err := core.NewPrometheusMetricsRecorder(e.Config.Metrics.Namespace, e.Registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	opts := []core.ServiceOption{
		core.WithClock(core.ClockFunc(e.Now)),
		core.WithLogger(e.Logger),
		core.WithMetricsRecorder(metrics),
		core.WithAuditRecorder(core.NewLogAuditRecorder(e.Logger)),
		core.WithPersister(e.Repo),
	}
	if trace != nil {
		opts = append(opts, core.WithTracer(core.NewJSONTracer(trace)))
	}
	e.Service = core.NewInMemoryService(core.NewDefaultRulesEngine(), opts...)

	snap, err := e.Repo.LoadDomain(ctx)
	if err != nil {
		return err
	}
	e.Service.Load(snap)

	e.Users, err = auth.OpenDirectory(ctx, e.Repo, auth.WithBcryptCost(e.Config.Auth.BcryptCost), auth.WithNow(e.Now))
	if err != nil {
		return err
	}
	e.Session, err = auth.NewSession(ctx, e.Users, e.Repo)
	return err
}

// Close flushes the metrics textfile, if configured, and releases the
// backend when Env opened it.
func (e *Env) Close() error {
	var errs []error
	if path := e.Config.Metrics.Textfile; path != "" {
		if err := prometheus.WriteToTextfile(path, e.Registry); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if e.ownsBlob {
		errs = append(errs, blob.Close(e.Blob))
	}
	return errors.Join(errs...)
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if cfg.JSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
