package client

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultPollInterval is the watcher's polling cadence when none is
// configured.
const DefaultPollInterval = 3 * time.Second

// WatcherState is the watcher's lifecycle phase.
type WatcherState string

const (
	WatcherIdle     WatcherState = "idle"
	WatcherWatching WatcherState = "watching"
)

// Watcher polls the server for job changes. Polling is the primary
// mechanism; the websocket stream (Subscribe) is an optional push
// channel on top of it.
type Watcher struct {
	client   *Client
	interval time.Duration

	mu    sync.Mutex
	state WatcherState
}

// NewWatcher creates a watcher. A non-positive interval falls back to
// DefaultPollInterval.
func NewWatcher(c *Client, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Watcher{
		client:   c,
		interval: interval,
		state:    WatcherIdle,
	}
}

// State returns the watcher's current phase.
func (w *Watcher) State() WatcherState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Watcher) setState(s WatcherState) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// WaitForJob polls until the job reaches a terminal status or ctx is
// cancelled. onUpdate, when non-nil, fires once per observed status
// change, including the terminal one.
func (w *Watcher) WaitForJob(ctx context.Context, jobID string, onUpdate func(Job)) (*Job, error) {
	w.setState(WatcherWatching)
	defer w.setState(WatcherIdle)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var lastStatus string
	for {
		job, err := w.client.GetJob(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("poll job %s: %w", jobID, err)
		}

		if job.Status != lastStatus {
			lastStatus = job.Status
			if onUpdate != nil {
				onUpdate(*job)
			}
		}

		if job.Terminal() {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// WatchActive polls the active-job list until ctx is cancelled, calling
// onUpdate with each fresh snapshot. Returns ctx.Err() on cancellation.
func (w *Watcher) WatchActive(ctx context.Context, onUpdate func([]Job)) error {
	w.setState(WatcherWatching)
	defer w.setState(WatcherIdle)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		jobs, err := w.client.ListJobs(ctx, true)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("poll active jobs: %w", err)
		}
		onUpdate(jobs)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
