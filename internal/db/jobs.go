// Package db provides SurrealDB query functions for generation jobs.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raphaelgruber/courseforge/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// nonTerminalStatuses is inlined into queries that filter active jobs.
const nonTerminalStatuses = `['pending', 'processing']`

// CreateJob inserts a new pending job for the target. If the target
// already has a non-terminal job, the unique active_key index rejects the
// insert and the existing job is returned instead, with created=false.
// This is the idempotent-enqueue contract: callers never get duplicates.
func (c *Client) CreateJob(ctx context.Context, id, target string, kind models.JobKind) (*models.GenerationJob, bool, error) {
	defer c.observe(time.Now())

	sql := `
		CREATE type::record("generation_job", $id) CONTENT {
			target: $target,
			kind: $kind,
			status: 'pending'
		} RETURN AFTER
	`

	results, err := surrealdb.Query[[]models.GenerationJob](ctx, c.db, sql, map[string]any{
		"id":     id,
		"target": target,
		"kind":   string(kind),
	})
	if err != nil {
		wrapped := wrapQueryError(err)
		if errors.Is(wrapped, ErrAlreadyExists) {
			existing, lookupErr := c.GetActiveJob(ctx, target)
			if lookupErr != nil {
				return nil, false, lookupErr
			}
			if existing == nil {
				// The active job reached a terminal state between the
				// rejected insert and our lookup. Surface the conflict;
				// the caller may simply re-request.
				return nil, false, fmt.Errorf("%w: %s", ErrActiveJobExists, target)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("create job: %w", wrapped)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, false, fmt.Errorf("create job: no result returned")
	}
	return &(*results)[0].Result[0], true, nil
}

// GetJob retrieves a job by ID. Returns ErrNotFound if it does not exist.
func (c *Client) GetJob(ctx context.Context, id string) (*models.GenerationJob, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]models.GenerationJob](ctx, c.db, `
		SELECT * FROM type::record("generation_job", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, ErrNotFound
	}
	return &(*results)[0].Result[0], nil
}

// GetActiveJob returns the single non-terminal job for a target, or nil
// if the target has none.
func (c *Client) GetActiveJob(ctx context.Context, target string) (*models.GenerationJob, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]models.GenerationJob](ctx, c.db, `
		SELECT * FROM generation_job
		WHERE target = $target AND status IN `+nonTerminalStatuses+`
		LIMIT 1
	`, map[string]any{"target": target})
	if err != nil {
		return nil, fmt.Errorf("get active job: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}

// GetLatestJob returns the most recently created job for a target,
// terminal or not. Returns ErrNotFound if the target has no jobs at all.
func (c *Client) GetLatestJob(ctx context.Context, target string) (*models.GenerationJob, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]models.GenerationJob](ctx, c.db, `
		SELECT * FROM generation_job
		WHERE target = $target
		ORDER BY created DESC
		LIMIT 1
	`, map[string]any{"target": target})
	if err != nil {
		return nil, fmt.Errorf("get latest job: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, ErrNotFound
	}
	return &(*results)[0].Result[0], nil
}

// ListJobs returns jobs most recent first, up to limit.
func (c *Client) ListJobs(ctx context.Context, limit int) ([]models.GenerationJob, error) {
	defer c.observe(time.Now())

	if limit <= 0 {
		limit = 50
	}
	results, err := surrealdb.Query[[]models.GenerationJob](ctx, c.db, `
		SELECT * FROM generation_job ORDER BY created DESC LIMIT $limit
	`, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.GenerationJob{}, nil
	}
	return (*results)[0].Result, nil
}

// ListActiveJobs returns all non-terminal jobs. Used at server startup to
// log jobs that were left mid-flight by a previous process.
func (c *Client) ListActiveJobs(ctx context.Context) ([]models.GenerationJob, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]models.GenerationJob](ctx, c.db, `
		SELECT * FROM generation_job WHERE status IN `+nonTerminalStatuses+`
		ORDER BY created ASC
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list active jobs: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.GenerationJob{}, nil
	}
	return (*results)[0].Result, nil
}

// BeginProcessing moves a job from pending to processing. The WHERE guard
// makes the transition conditional; an empty result means the job either
// does not exist or is not pending.
func (c *Client) BeginProcessing(ctx context.Context, id string) (*models.GenerationJob, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]models.GenerationJob](ctx, c.db, `
		UPDATE type::record("generation_job", $id)
		SET status = 'processing'
		WHERE status = 'pending'
		RETURN AFTER
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("begin processing: %w", wrapQueryError(err))
	}

	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		return &(*results)[0].Result[0], nil
	}

	job, err := c.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: begin processing from %s", ErrInvalidTransition, job.Status)
}

// CompleteJob moves a job from processing to completed, attaching the
// result reference. A duplicate completion carrying the same result is
// tolerated (retried network calls may deliver the signal twice); any
// other state yields ErrInvalidTransition.
func (c *Client) CompleteJob(ctx context.Context, id, resultRef string) (*models.GenerationJob, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]models.GenerationJob](ctx, c.db, `
		UPDATE type::record("generation_job", $id)
		SET status = 'completed', result_ref = $result_ref
		WHERE status = 'processing'
		RETURN AFTER
	`, map[string]any{"id": id, "result_ref": resultRef})
	if err != nil {
		return nil, fmt.Errorf("complete job: %w", wrapQueryError(err))
	}

	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		return &(*results)[0].Result[0], nil
	}

	job, err := c.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status == models.JobCompleted && job.ResultRef != nil && *job.ResultRef == resultRef {
		return job, nil
	}
	return nil, fmt.Errorf("%w: complete from %s", ErrInvalidTransition, job.Status)
}

// FailJob moves a job from pending or processing to failed with a
// human-readable reason. Failing an already-failed job is a no-op.
func (c *Client) FailJob(ctx context.Context, id, reason string) (*models.GenerationJob, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]models.GenerationJob](ctx, c.db, `
		UPDATE type::record("generation_job", $id)
		SET status = 'failed', error = $reason
		WHERE status IN `+nonTerminalStatuses+`
		RETURN AFTER
	`, map[string]any{"id": id, "reason": reason})
	if err != nil {
		return nil, fmt.Errorf("fail job: %w", wrapQueryError(err))
	}

	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		return &(*results)[0].Result[0], nil
	}

	job, err := c.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status == models.JobFailed {
		return job, nil
	}
	return nil, fmt.Errorf("%w: fail from %s", ErrInvalidTransition, job.Status)
}
