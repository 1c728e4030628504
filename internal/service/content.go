package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/raphaelgruber/courseforge/internal/db"
	"github.com/raphaelgruber/courseforge/internal/models"
)

// RequestTopicContent enqueues a topic-content generation job. The
// syllabus must be completed and the indexes must address an existing
// topic. If content already exists the finished job is returned and
// nothing new is enqueued; an active job for the same topic is returned
// as-is.
func (s *CourseService) RequestTopicContent(ctx context.Context, courseID string, moduleIndex, topicIndex int) (*models.GenerationJob, error) {
	syllabus, err := s.store.GetSyllabusByCourse(ctx, courseID)
	if err != nil {
		return nil, mapStoreNotFound(err, ErrCourseNotFound)
	}
	if syllabus.Status != models.SyllabusCompleted {
		return nil, ErrSyllabusNotReady
	}
	if syllabus.TopicAt(moduleIndex, topicIndex) == nil {
		return nil, ErrTopicOutOfRange
	}

	target := models.TopicTarget(courseID, moduleIndex, topicIndex)

	if _, err := s.store.GetContentItem(ctx, courseID, moduleIndex, topicIndex, models.ContentTypeText); err == nil {
		job, err := s.store.GetLatestJob(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("get latest topic job: %w", err)
		}
		return job, nil
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("check existing content: %w", err)
	}

	job, created, err := s.store.CreateJob(ctx, shortID(), target, models.JobKindTopicContent)
	if err != nil {
		return nil, fmt.Errorf("enqueue topic job: %w", err)
	}
	if created {
		s.dispatchTopic(job, courseID, moduleIndex, topicIndex)
	}
	return job, nil
}

// TopicContentState pairs a topic's content (when it exists) with the
// most recent generation job for it.
type TopicContentState struct {
	HasContent bool
	Job        *models.GenerationJob
}

// TopicContentStatus reports whether content exists for a topic and the
// latest job for it. Job is nil when nothing was ever requested.
func (s *CourseService) TopicContentStatus(ctx context.Context, courseID string, moduleIndex, topicIndex int) (*TopicContentState, error) {
	syllabus, err := s.store.GetSyllabusByCourse(ctx, courseID)
	if err != nil {
		return nil, mapStoreNotFound(err, ErrCourseNotFound)
	}
	if syllabus.Status == models.SyllabusCompleted && syllabus.TopicAt(moduleIndex, topicIndex) == nil {
		return nil, ErrTopicOutOfRange
	}

	state := &TopicContentState{}

	if _, err := s.store.GetContentItem(ctx, courseID, moduleIndex, topicIndex, models.ContentTypeText); err == nil {
		state.HasContent = true
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("check existing content: %w", err)
	}

	job, err := s.store.GetLatestJob(ctx, models.TopicTarget(courseID, moduleIndex, topicIndex))
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("get latest topic job: %w", err)
	}
	state.Job = job

	return state, nil
}

// GetTopicContent returns the expanded text for a topic.
func (s *CourseService) GetTopicContent(ctx context.Context, courseID string, moduleIndex, topicIndex int) (string, error) {
	item, err := s.store.GetContentItem(ctx, courseID, moduleIndex, topicIndex, models.ContentTypeText)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", ErrContentNotFound
		}
		return "", fmt.Errorf("get content item: %w", err)
	}

	text := item.Text()
	if text == "" {
		return "", fmt.Errorf("content item %s has no readable text", models.MustRecordIDString(item.ID))
	}
	return text, nil
}
