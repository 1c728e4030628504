package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raphaelgruber/courseforge/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// PutContentItem stores expanded content for one topic address. A second
// generation for the same address replaces the payload in place (the
// unique address index keeps one row per address).
func (c *Client) PutContentItem(ctx context.Context, courseID string, moduleIndex, topicIndex int, contentType models.ContentType, payload any) (*models.ContentItem, error) {
	defer c.observe(time.Now())

	vars := map[string]any{
		"course_id":    courseID,
		"module_index": moduleIndex,
		"topic_index":  topicIndex,
		"content_type": string(contentType),
		"payload":      payload,
	}

	results, err := surrealdb.Query[[]models.ContentItem](ctx, c.db, `
		CREATE content_item CONTENT {
			course_id: $course_id,
			module_index: $module_index,
			topic_index: $topic_index,
			content_type: $content_type,
			payload: $payload
		} RETURN AFTER
	`, vars)
	if err != nil {
		wrapped := wrapQueryError(err)
		if !errors.Is(wrapped, ErrAlreadyExists) {
			return nil, fmt.Errorf("put content item: %w", wrapped)
		}
		// Address already populated: replace the payload.
		results, err = surrealdb.Query[[]models.ContentItem](ctx, c.db, `
			UPDATE content_item
			SET payload = $payload
			WHERE course_id = $course_id
				AND module_index = $module_index
				AND topic_index = $topic_index
				AND content_type = $content_type
			RETURN AFTER
		`, vars)
		if err != nil {
			return nil, fmt.Errorf("replace content item: %w", err)
		}
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("put content item: no result returned")
	}
	return &(*results)[0].Result[0], nil
}

// GetContentItem retrieves content by (course, module, topic, type).
// Returns ErrNotFound when no content has been generated yet.
func (c *Client) GetContentItem(ctx context.Context, courseID string, moduleIndex, topicIndex int, contentType models.ContentType) (*models.ContentItem, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]models.ContentItem](ctx, c.db, `
		SELECT * FROM content_item
		WHERE course_id = $course_id
			AND module_index = $module_index
			AND topic_index = $topic_index
			AND content_type = $content_type
		LIMIT 1
	`, map[string]any{
		"course_id":    courseID,
		"module_index": moduleIndex,
		"topic_index":  topicIndex,
		"content_type": string(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("get content item: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, ErrNotFound
	}
	return &(*results)[0].Result[0], nil
}
