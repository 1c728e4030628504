package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raphaelgruber/courseforge/internal/db"
	"github.com/raphaelgruber/courseforge/internal/models"
	"github.com/raphaelgruber/courseforge/internal/moderation"
)

// defaultJobTimeout bounds how long one generation job may run.
const defaultJobTimeout = 10 * time.Minute

// Store is the persistence surface the services need. Satisfied by
// *db.Client.
type Store interface {
	CreateCourseConfig(ctx context.Context, id, topic, courseContext string, depth int, ownerID string) (*models.CourseConfig, error)
	GetCourseConfig(ctx context.Context, id string) (*models.CourseConfig, error)
	CreateSyllabus(ctx context.Context, courseID string) (*models.Syllabus, error)
	GetSyllabusByCourse(ctx context.Context, courseID string) (*models.Syllabus, error)

	CreateJob(ctx context.Context, id, target string, kind models.JobKind) (*models.GenerationJob, bool, error)
	GetJob(ctx context.Context, id string) (*models.GenerationJob, error)
	GetActiveJob(ctx context.Context, target string) (*models.GenerationJob, error)
	GetLatestJob(ctx context.Context, target string) (*models.GenerationJob, error)
	ListJobs(ctx context.Context, limit int) ([]models.GenerationJob, error)
	ListActiveJobs(ctx context.Context) ([]models.GenerationJob, error)

	GetContentItem(ctx context.Context, courseID string, moduleIndex, topicIndex int, contentType models.ContentType) (*models.ContentItem, error)

	CreateEnrollment(ctx context.Context, id, userID, courseID string) (*models.Enrollment, error)
	GetEnrollment(ctx context.Context, id string) (*models.Enrollment, error)
	AdvanceEnrollment(ctx context.Context, id string, moduleIndex int) (*models.Enrollment, error)
	AddCompletedTopic(ctx context.Context, id string, ref models.TopicRef) (*models.Enrollment, error)
}

// SafetyGate screens course requests before any resources are committed.
// Satisfied by *moderation.Gate.
type SafetyGate interface {
	Check(ctx context.Context, topic, courseContext string) moderation.Verdict
}

// SyllabusRunner executes syllabus generation jobs. Satisfied by
// *generator.SyllabusGenerator.
type SyllabusRunner interface {
	Run(ctx context.Context, jobID, courseID string) error
}

// TopicRunner executes topic content generation jobs. Satisfied by
// *generator.TopicContentGenerator.
type TopicRunner interface {
	Run(ctx context.Context, jobID, courseID string, moduleIndex, topicIndex int) error
}

// CourseService owns course creation and the generation workflows.
// Generation runs on background goroutines detached from the request
// context; Wait blocks until in-flight jobs drain.
type CourseService struct {
	store       Store
	gate        SafetyGate
	syllabusGen SyllabusRunner
	topicGen    TopicRunner
	log         *slog.Logger
	jobTimeout  time.Duration
	wg          sync.WaitGroup
}

// NewCourseService creates a course service.
func NewCourseService(store Store, gate SafetyGate, syllabusGen SyllabusRunner, topicGen TopicRunner, log *slog.Logger) *CourseService {
	return &CourseService{
		store:       store,
		gate:        gate,
		syllabusGen: syllabusGen,
		topicGen:    topicGen,
		log:         log,
		jobTimeout:  defaultJobTimeout,
	}
}

// Wait blocks until all dispatched generation jobs have finished.
func (s *CourseService) Wait() {
	s.wg.Wait()
}

// shortID generates the compact record ids used across tables.
func shortID() string {
	return uuid.New().String()[:8]
}

// CreateCourse validates and moderates a course request, persists the
// configuration and a pending syllabus, and enqueues the syllabus
// generation job. Rejected requests leave no records behind.
func (s *CourseService) CreateCourse(ctx context.Context, topic, courseContext string, depth int, ownerID string) (*models.CourseConfig, *models.GenerationJob, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, nil, ErrTopicRequired
	}
	if depth < models.MinDepth || depth > models.MaxDepth {
		return nil, nil, ErrInvalidDepth
	}

	verdict := s.gate.Check(ctx, topic, courseContext)
	if !verdict.Safe {
		s.log.Info("course request rejected by moderation", "owner_id", ownerID)
		return nil, nil, &ModerationError{Reason: verdict.Reason}
	}

	courseID := shortID()
	cfg, err := s.store.CreateCourseConfig(ctx, courseID, topic, courseContext, depth, ownerID)
	if err != nil {
		return nil, nil, fmt.Errorf("create course config: %w", err)
	}

	if _, err := s.store.CreateSyllabus(ctx, courseID); err != nil {
		return nil, nil, fmt.Errorf("create syllabus record: %w", err)
	}

	job, created, err := s.store.CreateJob(ctx, shortID(), models.SyllabusTarget(courseID), models.JobKindSyllabus)
	if err != nil {
		return nil, nil, fmt.Errorf("enqueue syllabus job: %w", err)
	}
	if created {
		s.dispatchSyllabus(job, courseID)
	}

	s.log.Info("course created",
		"course_id", courseID,
		"depth", depth,
		"job_id", models.MustRecordIDString(job.ID))
	return cfg, job, nil
}

// RequestSyllabusGeneration enqueues a syllabus generation job for an
// existing course. Used to retry after a failed generation. Completed
// syllabi are idempotent: the finished job is returned and nothing is
// enqueued. An active job is likewise returned as-is.
func (s *CourseService) RequestSyllabusGeneration(ctx context.Context, courseID string) (*models.GenerationJob, error) {
	if _, err := s.store.GetCourseConfig(ctx, courseID); err != nil {
		return nil, mapStoreNotFound(err, ErrCourseNotFound)
	}

	syllabus, err := s.store.GetSyllabusByCourse(ctx, courseID)
	if err != nil {
		return nil, mapStoreNotFound(err, ErrCourseNotFound)
	}

	target := models.SyllabusTarget(courseID)
	if syllabus.Status == models.SyllabusCompleted {
		job, err := s.store.GetLatestJob(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("get latest syllabus job: %w", err)
		}
		return job, nil
	}

	job, created, err := s.store.CreateJob(ctx, shortID(), target, models.JobKindSyllabus)
	if err != nil {
		return nil, fmt.Errorf("enqueue syllabus job: %w", err)
	}
	if created {
		s.dispatchSyllabus(job, courseID)
	}
	return job, nil
}

// SyllabusState pairs a syllabus with its most recent generation job.
type SyllabusState struct {
	Syllabus *models.Syllabus
	Job      *models.GenerationJob
}

// SyllabusStatus reports the syllabus and its latest job for a course.
func (s *CourseService) SyllabusStatus(ctx context.Context, courseID string) (*SyllabusState, error) {
	syllabus, err := s.store.GetSyllabusByCourse(ctx, courseID)
	if err != nil {
		return nil, mapStoreNotFound(err, ErrCourseNotFound)
	}

	job, err := s.store.GetLatestJob(ctx, models.SyllabusTarget(courseID))
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("get latest syllabus job: %w", err)
	}

	return &SyllabusState{Syllabus: syllabus, Job: job}, nil
}

// GetCourse returns the course configuration.
func (s *CourseService) GetCourse(ctx context.Context, courseID string) (*models.CourseConfig, error) {
	cfg, err := s.store.GetCourseConfig(ctx, courseID)
	if err != nil {
		return nil, mapStoreNotFound(err, ErrCourseNotFound)
	}
	return cfg, nil
}

// GetSyllabus returns the syllabus. It exists in any state once the
// course does; callers inspect Status before relying on Modules.
func (s *CourseService) GetSyllabus(ctx context.Context, courseID string) (*models.Syllabus, error) {
	syllabus, err := s.store.GetSyllabusByCourse(ctx, courseID)
	if err != nil {
		return nil, mapStoreNotFound(err, ErrCourseNotFound)
	}
	return syllabus, nil
}

// GetJob returns one generation job by id.
func (s *CourseService) GetJob(ctx context.Context, jobID string) (*models.GenerationJob, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, mapStoreNotFound(err, ErrJobNotFound)
	}
	return job, nil
}

// ListJobs returns recent jobs, newest first.
func (s *CourseService) ListJobs(ctx context.Context, limit int) ([]models.GenerationJob, error) {
	return s.store.ListJobs(ctx, limit)
}

// ListActiveJobs returns all pending and processing jobs.
func (s *CourseService) ListActiveJobs(ctx context.Context) ([]models.GenerationJob, error) {
	return s.store.ListActiveJobs(ctx)
}

func (s *CourseService) dispatchSyllabus(job *models.GenerationJob, courseID string) {
	jobID := models.MustRecordIDString(job.ID)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()
		if err := s.syllabusGen.Run(ctx, jobID, courseID); err != nil {
			s.log.Error("syllabus job failed", "job_id", jobID, "course_id", courseID, "error", err)
		}
	}()
}

func (s *CourseService) dispatchTopic(job *models.GenerationJob, courseID string, moduleIndex, topicIndex int) {
	jobID := models.MustRecordIDString(job.ID)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()
		if err := s.topicGen.Run(ctx, jobID, courseID, moduleIndex, topicIndex); err != nil {
			s.log.Error("topic content job failed",
				"job_id", jobID, "course_id", courseID,
				"module", moduleIndex, "topic", topicIndex, "error", err)
		}
	}()
}

// mapStoreNotFound converts the store's not-found into a service
// sentinel, passing other errors through unchanged.
func mapStoreNotFound(err error, sentinel error) error {
	if errors.Is(err, db.ErrNotFound) {
		return sentinel
	}
	return err
}
