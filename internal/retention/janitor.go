// Package retention periodically removes old imports and uploads.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/soochol/hydrahunt/internal/services"
)

// Purger deletes everything created before cutoff.
type Purger interface {
	Purge(ctx context.Context, cutoff time.Time) (services.PurgeStats, error)
}

// Janitor runs a Purger on a cron schedule.
type Janitor struct {
	purger Purger
	maxAge time.Duration
	cron   *cron.Cron
	now    func() time.Time

	mu      sync.Mutex
	running bool
}

// New creates a Janitor removing data older than maxAge whenever schedule
// fires. The schedule accepts 6-field (with seconds) or 5-field
// expressions and descriptors such as "@daily".
func New(purger Purger, schedule string, maxAge time.Duration) (*Janitor, error) {
	if maxAge <= 0 {
		return nil, fmt.Errorf("retention: max age must be positive, got %s", maxAge)
	}
	sched, err := parseCronExpr(schedule)
	if err != nil {
		return nil, fmt.Errorf("retention: schedule %q: %w", schedule, err)
	}
	j := &Janitor{
		purger: purger,
		maxAge: maxAge,
		cron:   cron.New(),
		now:    time.Now,
	}
	j.cron.Schedule(sched, cron.FuncJob(func() {
		if _, err := j.RunOnce(context.Background()); err != nil {
			slog.Warn("retention: purge failed", "err", err)
		}
	}))
	return j, nil
}

// parseCronExpr tries 6-field (with seconds) then 5-field (standard) parsing.
func parseCronExpr(expr string) (cron.Schedule, error) {
	parser6 := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	sched, err := parser6.Parse(expr)
	if err == nil {
		return sched, nil
	}
	parser5 := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return parser5.Parse(expr)
}

// Start begins the cron loop.
func (j *Janitor) Start() {
	j.cron.Start()
	slog.Info("retention: started", "max_age", j.maxAge.String())
}

// Stop waits for a running purge and stops the cron loop.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
	slog.Info("retention: stopped")
}

// RunOnce purges immediately. Overlapping runs are skipped.
func (j *Janitor) RunOnce(ctx context.Context) (services.PurgeStats, error) {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		slog.Debug("retention: previous purge still running, skipping")
		return services.PurgeStats{}, nil
	}
	j.running = true
	j.mu.Unlock()
	defer func() {
		j.mu.Lock()
		j.running = false
		j.mu.Unlock()
	}()

	cutoff := j.now().Add(-j.maxAge)
	stats, err := j.purger.Purge(ctx, cutoff)
	slog.Info("retention: purged",
		"cutoff", cutoff.Format(time.RFC3339), "imports", stats.Imports, "files", stats.Files)
	return stats, err
}
