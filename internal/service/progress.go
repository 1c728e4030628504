package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/courseforge/internal/db"
	"github.com/raphaelgruber/courseforge/internal/models"
)

// ProgressService tracks learner enrollments and topic completion.
type ProgressService struct {
	store Store
	log   *slog.Logger
}

// NewProgressService creates a progress service.
func NewProgressService(store Store, log *slog.Logger) *ProgressService {
	return &ProgressService{store: store, log: log}
}

// Progress is the derived view of one enrollment. Percent is computed
// from the completed-topic set against the syllabus, never persisted.
type Progress struct {
	Enrollment      *models.Enrollment
	TotalTopics     int
	CompletedTopics int
	Percent         int

	// ReadyForAssessment is raised when every topic in the course has
	// been completed. It signals eligibility only; the enrollment's
	// Completed flag is owned by the assessment flow.
	ReadyForAssessment bool
}

// Enroll creates an enrollment for a user in a course. The syllabus must
// be completed so the course has a known structure to progress through.
func (s *ProgressService) Enroll(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	syllabus, err := s.store.GetSyllabusByCourse(ctx, courseID)
	if err != nil {
		return nil, mapStoreNotFound(err, ErrCourseNotFound)
	}
	if syllabus.Status != models.SyllabusCompleted {
		return nil, ErrSyllabusNotReady
	}

	enrollment, err := s.store.CreateEnrollment(ctx, shortID(), userID, courseID)
	if err != nil {
		if errors.Is(err, db.ErrAlreadyExists) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, fmt.Errorf("create enrollment: %w", err)
	}

	s.log.Info("user enrolled", "enrollment_id", models.MustRecordIDString(enrollment.ID),
		"user_id", userID, "course_id", courseID)
	return enrollment, nil
}

// GetProgress returns the derived progress for an enrollment.
func (s *ProgressService) GetProgress(ctx context.Context, enrollmentID string) (*Progress, error) {
	enrollment, err := s.store.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, mapStoreNotFound(err, ErrEnrollmentNotFound)
	}
	return s.buildProgress(ctx, enrollment)
}

// AdvanceModule moves the enrollment's current module forward to
// moduleIndex. Moving backwards is a no-op; the current state is
// returned either way.
func (s *ProgressService) AdvanceModule(ctx context.Context, enrollmentID string, moduleIndex int) (*models.Enrollment, error) {
	enrollment, err := s.store.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, mapStoreNotFound(err, ErrEnrollmentNotFound)
	}

	syllabus, err := s.store.GetSyllabusByCourse(ctx, enrollment.CourseID)
	if err != nil {
		return nil, mapStoreNotFound(err, ErrCourseNotFound)
	}
	if moduleIndex < 0 || moduleIndex >= len(syllabus.Modules) {
		return nil, ErrTopicOutOfRange
	}

	updated, err := s.store.AdvanceEnrollment(ctx, enrollmentID, moduleIndex)
	if err != nil {
		return nil, fmt.Errorf("advance enrollment: %w", err)
	}
	return updated, nil
}

// MarkTopicComplete records completion of one topic and returns the
// resulting progress. Completing an already-completed topic is a no-op.
// When the final outstanding topic completes, the returned progress has
// ReadyForAssessment set.
func (s *ProgressService) MarkTopicComplete(ctx context.Context, enrollmentID string, moduleIndex, topicIndex int) (*Progress, error) {
	enrollment, err := s.store.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, mapStoreNotFound(err, ErrEnrollmentNotFound)
	}

	syllabus, err := s.store.GetSyllabusByCourse(ctx, enrollment.CourseID)
	if err != nil {
		return nil, mapStoreNotFound(err, ErrCourseNotFound)
	}
	if syllabus.TopicAt(moduleIndex, topicIndex) == nil {
		return nil, ErrTopicOutOfRange
	}

	ref := models.TopicRef{Module: moduleIndex, Topic: topicIndex}
	updated, err := s.store.AddCompletedTopic(ctx, enrollmentID, ref)
	if err != nil {
		return nil, fmt.Errorf("mark topic complete: %w", err)
	}

	progress := progressFrom(updated, syllabus)
	if progress.ReadyForAssessment {
		s.log.Info("enrollment ready for assessment",
			"enrollment_id", enrollmentID, "course_id", enrollment.CourseID)
	}
	return progress, nil
}

func (s *ProgressService) buildProgress(ctx context.Context, enrollment *models.Enrollment) (*Progress, error) {
	syllabus, err := s.store.GetSyllabusByCourse(ctx, enrollment.CourseID)
	if err != nil {
		return nil, mapStoreNotFound(err, ErrCourseNotFound)
	}
	return progressFrom(enrollment, syllabus), nil
}

func progressFrom(enrollment *models.Enrollment, syllabus *models.Syllabus) *Progress {
	total := syllabus.TotalTopics()
	completed := len(enrollment.CompletedTopics)

	return &Progress{
		Enrollment:         enrollment,
		TotalTopics:        total,
		CompletedTopics:    completed,
		Percent:            models.ProgressPercent(completed, total),
		ReadyForAssessment: total > 0 && completed >= total,
	}
}
