package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/FACorreiaa/statement-import/internal/domain/categorization"
	"github.com/FACorreiaa/statement-import/internal/domain/import/repository"
	"github.com/FACorreiaa/statement-import/internal/domain/import/service"
	"github.com/FACorreiaa/statement-import/pkg/config"
	"github.com/FACorreiaa/statement-import/pkg/db"
	"github.com/FACorreiaa/statement-import/pkg/metrics"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	Store         repository.AdapterStore
	ImportService *service.ImportService
	Categorizer   *categorization.Categorizer
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if cfg.Observability.MetricsEnabled {
		deps.Registry = prometheus.NewRegistry()
		deps.Metrics = metrics.New(deps.Registry)
	}

	// Initialize adapter store
	if err := deps.initStore(ctx); err != nil {
		return nil, fmt.Errorf("failed to init adapter store: %w", err)
	}

	// Initialize services
	deps.ImportService = service.NewImportService(deps.Store, cfg.Import, logger).
		WithMetrics(deps.Metrics)
	deps.Categorizer = categorization.New(categorization.DefaultMerchants, categorization.DefaultPatterns).
		WithMetrics(deps.Metrics)

	logger.Debug("dependencies initialized", "store", cfg.Store.Kind)
	return deps, nil
}

// initStore opens the configured adapter store backend
func (d *Dependencies) initStore(ctx context.Context) error {
	switch d.Config.Store.Kind {
	case config.StoreMemory:
		d.Store = repository.NewMemoryStore()
	case config.StoreFile:
		store, err := repository.NewFileStore(d.Config.Store.Path)
		if err != nil {
			return err
		}
		d.Store = store
	case config.StorePostgres:
		if err := d.initDatabase(ctx); err != nil {
			return err
		}
		d.Store = repository.NewPostgresStore(d.DB.Pool)
	default:
		return fmt.Errorf("unknown adapter store %q", d.Config.Store.Kind)
	}
	return nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase(ctx context.Context) error {
	database, err := db.New(ctx, db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        int32(d.Config.Database.MaxConns),
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}
	d.DB = database

	if err := d.DB.RunMigrations(ctx); err != nil {
		d.DB.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// Close releases the database pool, if one was opened.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}

// WriteMetrics prints the collected counters as "name{labels} value" lines.
// It writes nothing when metrics are disabled.
func (d *Dependencies) WriteMetrics(w io.Writer) error {
	if d.Registry == nil {
		return nil
	}
	families, err := d.Registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
			}
			slices.Sort(labels)

			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				value = float64(m.GetHistogram().GetSampleCount())
			default:
				continue
			}
			if _, err := fmt.Fprintf(w, "%s{%s} %g\n", mf.GetName(), strings.Join(labels, ","), value); err != nil {
				return err
			}
		}
	}
	return nil
}
