// Package jobs runs catalog syncs on a schedule and on demand.
package jobs

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"motorhub/internal/events"
	"motorhub/internal/ingest"
	"motorhub/internal/motor"
	"motorhub/pkg/models"
)

// ErrRunning is returned when a sync is requested while one is in flight.
var ErrRunning = errors.New("sync already running")

type Runner struct {
	Aggregator *ingest.Aggregator
	Motors     *motor.Repo
	Runs       *RunRepo
	Events     events.Publisher // optional
	Interval   time.Duration    // 0 disables Start's ticker
	Timeout    time.Duration
	Log        zerolog.Logger

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

func (r *Runner) sourceLabel() string {
	names := make([]string, 0, len(r.Aggregator.Sources))
	for _, s := range r.Aggregator.Sources {
		names = append(names, s.Name())
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// begin reserves the runner and records a new run.
func (r *Runner) begin(ctx context.Context) (models.SyncRun, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return models.SyncRun{}, ErrRunning
	}
	r.running = true
	r.mu.Unlock()

	run := models.SyncRun{
		ID:        uuid.NewString(),
		Source:    r.sourceLabel(),
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := r.Runs.Create(ctx, run); err != nil {
		r.release()
		return models.SyncRun{}, err
	}
	return run, nil
}

func (r *Runner) release() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

// Running reports whether a sync is in flight.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// RunOnce performs one sync and blocks until it is recorded.
func (r *Runner) RunOnce(ctx context.Context) (models.SyncRun, error) {
	run, err := r.begin(ctx)
	if err != nil {
		return run, err
	}
	return r.execute(ctx, run)
}

// Trigger starts a sync in the background and returns the running record.
// The sync is detached from ctx so it outlives the triggering request.
func (r *Runner) Trigger(ctx context.Context) (models.SyncRun, error) {
	run, err := r.begin(ctx)
	if err != nil {
		return run, err
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		_, _ = r.execute(context.WithoutCancel(ctx), run)
	}()
	return run, nil
}

// Wait blocks until background syncs started by Trigger have finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) execute(ctx context.Context, run models.SyncRun) (models.SyncRun, error) {
	defer r.release()

	log := r.Log.With().Str("run_id", run.ID).Logger()
	log.Info().Str("sources", run.Source).Msg("sync started")

	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	runErr := r.sync(runCtx, &run)

	finished := time.Now().UTC()
	run.FinishedAt = &finished
	run.Status = StatusOK
	if runErr != nil {
		run.Status = StatusFailed
		run.Error = runErr.Error()
	}

	// recording the outcome must not be cut short by the run timeout
	if err := r.Runs.Finish(context.WithoutCancel(ctx), run); err != nil {
		log.Error().Err(err).Msg("record sync run")
	}

	if runErr != nil {
		log.Error().Err(runErr).Dur("took", finished.Sub(run.StartedAt)).Msg("sync failed")
		return run, runErr
	}
	log.Info().
		Int("fetched", run.Fetched).
		Int("upserted", run.Upserted).
		Int("dropped", run.Dropped).
		Dur("took", finished.Sub(run.StartedAt)).
		Msg("sync finished")
	return run, nil
}

func (r *Runner) sync(ctx context.Context, run *models.SyncRun) error {
	res, err := r.Aggregator.FetchAndMerge(ctx)
	if err != nil {
		return err
	}
	run.Fetched = res.Fetched
	run.Dropped = res.Dropped

	if len(res.Failed) > 0 && len(res.Failed) == len(r.Aggregator.Sources) {
		return errors.New("all sources failed: " + strings.Join(res.Failed, ", "))
	}

	if err := ingest.SaveToDatabase(ctx, r.Motors, res.Motors); err != nil {
		return err
	}
	run.Upserted = len(res.Motors)

	if r.Events != nil {
		for _, m := range res.Motors {
			r.Events.Publish(events.MotorUpdated(run.ID, m.ModelKey))
		}
		r.Events.Publish(events.InventorySynced(run.ID, run.Fetched, run.Upserted, run.Dropped, res.Failed))
	}
	return nil
}

// Start runs a sync immediately and then every Interval until ctx is done.
// A tick that lands while a sync is still running is skipped.
func (r *Runner) Start(ctx context.Context) {
	if r.Interval <= 0 {
		return
	}
	r.Log.Info().Dur("interval", r.Interval).Msg("sync scheduler started")

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		if _, err := r.RunOnce(ctx); errors.Is(err, ErrRunning) {
			r.Log.Debug().Msg("sync still running, tick skipped")
		}
		select {
		case <-ctx.Done():
			r.Log.Info().Msg("sync scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}
