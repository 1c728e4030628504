package generator

import (
	"context"
	"errors"
	"log/slog"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/raphaelgruber/courseforge/internal/models"
)

// fakeModel returns canned responses in order and records call counts.
type fakeModel struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeModel) next() (string, error) {
	i := f.calls
	f.calls++
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var resp string
	if i < len(f.responses) {
		resp = f.responses[i]
	}
	return resp, err
}

func (f *fakeModel) GenerateWithSystem(ctx context.Context, system, user string) (string, error) {
	return f.next()
}

func (f *fakeModel) GenerateJSON(ctx context.Context, system, user string) (string, error) {
	return f.next()
}

// panicModel simulates a bug in the generation path.
type panicModel struct{}

func (panicModel) GenerateWithSystem(ctx context.Context, system, user string) (string, error) {
	panic("boom")
}

func (panicModel) GenerateJSON(ctx context.Context, system, user string) (string, error) {
	panic("boom")
}

// fakeStore is an in-memory Store tracking state transitions.
type fakeStore struct {
	cfg      *models.CourseConfig
	syllabus *models.Syllabus
	job      *models.GenerationJob
	content  *models.ContentItem

	beginErr    error
	completeErr error
}

func newFakeStore(depth int, jobID string) *fakeStore {
	return &fakeStore{
		cfg: &models.CourseConfig{
			ID:    surrealmodels.RecordID{Table: "course_config", ID: "c1"},
			Topic: "Distributed Systems",
			Depth: depth,
		},
		syllabus: &models.Syllabus{
			ID:       surrealmodels.RecordID{Table: "syllabus", ID: "s1"},
			CourseID: "c1",
			Status:   models.SyllabusPending,
		},
		job: &models.GenerationJob{
			ID:     surrealmodels.RecordID{Table: "generation_job", ID: jobID},
			Status: models.JobPending,
		},
	}
}

func (f *fakeStore) GetCourseConfig(ctx context.Context, id string) (*models.CourseConfig, error) {
	if f.cfg == nil {
		return nil, errors.New("not found")
	}
	return f.cfg, nil
}

func (f *fakeStore) GetSyllabusByCourse(ctx context.Context, courseID string) (*models.Syllabus, error) {
	if f.syllabus == nil {
		return nil, errors.New("not found")
	}
	return f.syllabus, nil
}

func (f *fakeStore) MarkSyllabusGenerating(ctx context.Context, courseID string) error {
	f.syllabus.Status = models.SyllabusGenerating
	return nil
}

func (f *fakeStore) CompleteSyllabus(ctx context.Context, courseID string, modules []models.Module, keywords []string) (*models.Syllabus, error) {
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	f.syllabus.Status = models.SyllabusCompleted
	f.syllabus.Modules = modules
	f.syllabus.Keywords = keywords
	return f.syllabus, nil
}

func (f *fakeStore) FailSyllabus(ctx context.Context, courseID, reason string) error {
	f.syllabus.Status = models.SyllabusFailed
	f.syllabus.Error = &reason
	return nil
}

func (f *fakeStore) PutContentItem(ctx context.Context, courseID string, moduleIndex, topicIndex int, contentType models.ContentType, payload any) (*models.ContentItem, error) {
	f.content = &models.ContentItem{
		ID:          surrealmodels.RecordID{Table: "content_item", ID: "ci1"},
		CourseID:    courseID,
		ModuleIndex: moduleIndex,
		TopicIndex:  topicIndex,
		ContentType: contentType,
		Payload:     payload,
	}
	return f.content, nil
}

func (f *fakeStore) BeginProcessing(ctx context.Context, id string) (*models.GenerationJob, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	f.job.Status = models.JobProcessing
	return f.job, nil
}

func (f *fakeStore) CompleteJob(ctx context.Context, id, resultRef string) (*models.GenerationJob, error) {
	f.job.Status = models.JobCompleted
	f.job.ResultRef = &resultRef
	return f.job, nil
}

func (f *fakeStore) FailJob(ctx context.Context, id, reason string) (*models.GenerationJob, error) {
	f.job.Status = models.JobFailed
	f.job.Error = &reason
	return f.job, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
