// Package app wires configuration, logging, metrics, the kv backend and both
// stores into one explicitly constructed value.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"storefront/internal/admin"
	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/kv"
	"storefront/internal/logging"
	"storefront/internal/metrics"
)

// App owns the process-wide store instances.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Metrics  metrics.Recorder
	KV       kv.Store
	Cart     *cart.Store
	Admin    *admin.Store
}

type options struct {
	logOutput io.Writer
	store     kv.Store
}

// Option customises New.
type Option func(*options)

// WithLogOutput directs log records to w instead of stderr.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// WithStore uses store instead of opening cfg.Storage. Ownership passes to
// the App: Close closes store if it implements io.Closer.
func WithStore(store kv.Store) Option {
	return func(o *options) { o.store = store }
}

// New builds the application from cfg.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	o := options{logOutput: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger, err := logging.New(cfg.Log, o.logOutput)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	rec, err := metrics.NewPrometheus(reg, cfg.Metrics.Namespace)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	store := o.store
	if store == nil {
		store, err = kv.Open(ctx, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("open kv: %w", err)
		}
	}
	logger.Debug("kv backend ready", "driver", store.Driver())

	cartStore := cart.New(ctx,
		cart.WithKV(store),
		cart.WithKey(cfg.Cart.Key),
		cart.WithLogger(logger),
		cart.WithMetrics(rec),
	)
	adminOpts := []admin.Option{
		admin.WithKeyPrefix(cfg.Admin.KeyPrefix),
		admin.WithLogger(logger),
		admin.WithMetrics(rec),
	}
	if cfg.Admin.Persist {
		adminOpts = append(adminOpts, admin.WithKV(store))
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		Metrics:  rec,
		KV:       store,
		Cart:     cartStore,
		Admin:    admin.New(ctx, adminOpts...),
	}, nil
}

// Close releases the kv backend.
func (a *App) Close() error {
	return kv.Close(a.KV)
}
