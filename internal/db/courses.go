package db

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/courseforge/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// CreateCourseConfig persists an immutable course configuration.
func (c *Client) CreateCourseConfig(ctx context.Context, id, topic, courseContext string, depth int, ownerID string) (*models.CourseConfig, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]models.CourseConfig](ctx, c.db, `
		CREATE type::record("course_config", $id) CONTENT {
			topic: $topic,
			context: $context,
			depth: $depth,
			owner_id: $owner_id
		} RETURN AFTER
	`, map[string]any{
		"id":       id,
		"topic":    topic,
		"context":  courseContext,
		"depth":    depth,
		"owner_id": ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("create course config: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create course config: no result returned")
	}
	return &(*results)[0].Result[0], nil
}

// GetCourseConfig retrieves a course configuration by ID.
func (c *Client) GetCourseConfig(ctx context.Context, id string) (*models.CourseConfig, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]models.CourseConfig](ctx, c.db, `
		SELECT * FROM type::record("course_config", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get course config: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, ErrNotFound
	}
	return &(*results)[0].Result[0], nil
}

// CreateSyllabus creates the empty pending syllabus for a course. Called
// exactly once, at the moment the course configuration passes moderation.
func (c *Client) CreateSyllabus(ctx context.Context, courseID string) (*models.Syllabus, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]models.Syllabus](ctx, c.db, `
		CREATE syllabus CONTENT {
			course_id: $course_id,
			status: 'pending'
		} RETURN AFTER
	`, map[string]any{"course_id": courseID})
	if err != nil {
		return nil, fmt.Errorf("create syllabus: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create syllabus: no result returned")
	}
	return &(*results)[0].Result[0], nil
}

// GetSyllabusByCourse retrieves the syllabus for a course.
func (c *Client) GetSyllabusByCourse(ctx context.Context, courseID string) (*models.Syllabus, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]models.Syllabus](ctx, c.db, `
		SELECT * FROM syllabus WHERE course_id = $course_id LIMIT 1
	`, map[string]any{"course_id": courseID})
	if err != nil {
		return nil, fmt.Errorf("get syllabus: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, ErrNotFound
	}
	return &(*results)[0].Result[0], nil
}

// MarkSyllabusGenerating transitions a syllabus to generating. Valid from
// pending (first attempt) and failed (caller-issued retry with a fresh
// job); a completed syllabus is immutable.
func (c *Client) MarkSyllabusGenerating(ctx context.Context, courseID string) error {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]models.Syllabus](ctx, c.db, `
		UPDATE syllabus
		SET status = 'generating', error = NONE
		WHERE course_id = $course_id AND status IN ['pending', 'failed']
		RETURN AFTER
	`, map[string]any{"course_id": courseID})
	if err != nil {
		return fmt.Errorf("mark syllabus generating: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return fmt.Errorf("%w: syllabus for course %s", ErrInvalidTransition, courseID)
	}
	return nil
}

// CompleteSyllabus attaches the generated modules and keywords in one
// write. All-or-nothing: this is the only way modules get populated.
func (c *Client) CompleteSyllabus(ctx context.Context, courseID string, modules []models.Module, keywords []string) (*models.Syllabus, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]models.Syllabus](ctx, c.db, `
		UPDATE syllabus
		SET status = 'completed', modules = $modules, keywords = $keywords, error = NONE
		WHERE course_id = $course_id AND status = 'generating'
		RETURN AFTER
	`, map[string]any{
		"course_id": courseID,
		"modules":   modules,
		"keywords":  keywords,
	})
	if err != nil {
		return nil, fmt.Errorf("complete syllabus: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("%w: complete syllabus for course %s", ErrInvalidTransition, courseID)
	}
	return &(*results)[0].Result[0], nil
}

// FailSyllabus marks a syllabus failed with no partial modules retained.
func (c *Client) FailSyllabus(ctx context.Context, courseID, reason string) error {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]models.Syllabus](ctx, c.db, `
		UPDATE syllabus
		SET status = 'failed', modules = [], keywords = [], error = $reason
		WHERE course_id = $course_id AND status = 'generating'
		RETURN AFTER
	`, map[string]any{"course_id": courseID, "reason": reason})
	if err != nil {
		return fmt.Errorf("fail syllabus: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return fmt.Errorf("%w: fail syllabus for course %s", ErrInvalidTransition, courseID)
	}
	return nil
}
