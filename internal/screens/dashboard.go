package screens

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/tuitionbook/internal/models"
)

// DashboardAPI is what the dashboard needs from the API.
type DashboardAPI interface {
	Dashboard(ctx context.Context) (*models.Dashboard, error)
	MonthlyCollection(ctx context.Context) ([]models.MonthlyCollection, error)
	GenerateFees(ctx context.Context, exceptThisMonth bool) (string, error)
}

// Dashboard shows the headline stats and the monthly collection.
type Dashboard struct {
	api    DashboardAPI
	notify Notifier
	logger *slog.Logger
	g      guard

	mu         sync.Mutex
	stats      models.Dashboard
	collection []models.MonthlyCollection
}

func NewDashboard(a DashboardAPI, n Notifier) *Dashboard {
	return &Dashboard{api: a, notify: n, logger: slog.Default().With("screen", "dashboard")}
}

// Load fetches the stats and the monthly collection in parallel.
func (d *Dashboard) Load(ctx context.Context) error {
	tok := d.g.issue()

	var stats *models.Dashboard
	var collection []models.MonthlyCollection
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		if stats, err = d.api.Dashboard(egCtx); err != nil {
			return fmt.Errorf("failed to fetch dashboard: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		if collection, err = d.api.MonthlyCollection(egCtx); err != nil {
			return fmt.Errorf("failed to fetch monthly collection: %w", err)
		}
		return nil
	})
	err := eg.Wait()

	if !d.g.current(tok) {
		return ErrStale
	}
	if err != nil {
		d.logger.Error("Failed to load dashboard", "error", err)
		return fail(d.notify, err)
	}

	d.mu.Lock()
	d.stats = *stats
	d.collection = collection
	d.mu.Unlock()
	return nil
}

// Stats returns the loaded stats.
func (d *Dashboard) Stats() models.Dashboard {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Collection returns the loaded monthly collection.
func (d *Dashboard) Collection() []models.MonthlyCollection {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.MonthlyCollection(nil), d.collection...)
}

// GenerateFees asks the server to create the missing fee records, then
// reloads the stats.
func (d *Dashboard) GenerateFees(ctx context.Context, exceptThisMonth bool) error {
	release, err := d.g.acquire()
	if err != nil {
		return err
	}
	msg, err := d.api.GenerateFees(ctx, exceptThisMonth)
	release()
	if err != nil {
		d.logger.Error("Failed to generate fees", "error", err)
		return fail(d.notify, err)
	}
	d.notify.Success(msg)
	return d.Load(ctx)
}
