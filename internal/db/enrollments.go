package db

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/courseforge/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// CreateEnrollment enrolls a user in a course. The unique (user, course)
// index rejects double enrollment; callers see ErrAlreadyExists.
func (c *Client) CreateEnrollment(ctx context.Context, id, userID, courseID string) (*models.Enrollment, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]models.Enrollment](ctx, c.db, `
		CREATE type::record("enrollment", $id) CONTENT {
			user_id: $user_id,
			course_id: $course_id,
			current_module_index: 0,
			completed_topics: [],
			completed: false
		} RETURN AFTER
	`, map[string]any{
		"id":        id,
		"user_id":   userID,
		"course_id": courseID,
	})
	if err != nil {
		return nil, fmt.Errorf("create enrollment: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create enrollment: no result returned")
	}
	return &(*results)[0].Result[0], nil
}

// GetEnrollment retrieves an enrollment by ID.
func (c *Client) GetEnrollment(ctx context.Context, id string) (*models.Enrollment, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]models.Enrollment](ctx, c.db, `
		SELECT * FROM type::record("enrollment", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get enrollment: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, ErrNotFound
	}
	return &(*results)[0].Result[0], nil
}

// AdvanceEnrollment raises the current module index. The WHERE guard
// keeps the index monotonically non-decreasing; a lower or equal index
// leaves the row untouched and returns the current state.
func (c *Client) AdvanceEnrollment(ctx context.Context, id string, moduleIndex int) (*models.Enrollment, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]models.Enrollment](ctx, c.db, `
		UPDATE type::record("enrollment", $id)
		SET current_module_index = $module_index
		WHERE current_module_index < $module_index
		RETURN AFTER
	`, map[string]any{"id": id, "module_index": moduleIndex})
	if err != nil {
		return nil, fmt.Errorf("advance enrollment: %w", wrapQueryError(err))
	}

	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		return &(*results)[0].Result[0], nil
	}

	// No-op advance: return the enrollment as it stands.
	return c.GetEnrollment(ctx, id)
}

// AddCompletedTopic adds a (module, topic) pair to the completed set.
// array::union deduplicates, so re-completing a topic is a no-op.
func (c *Client) AddCompletedTopic(ctx context.Context, id string, ref models.TopicRef) (*models.Enrollment, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]models.Enrollment](ctx, c.db, `
		UPDATE type::record("enrollment", $id)
		SET completed_topics = array::union(completed_topics, [$ref])
		RETURN AFTER
	`, map[string]any{"id": id, "ref": ref})
	if err != nil {
		return nil, fmt.Errorf("add completed topic: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, ErrNotFound
	}
	return &(*results)[0].Result[0], nil
}
