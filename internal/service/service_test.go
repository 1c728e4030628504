package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/raphaelgruber/courseforge/internal/db"
	"github.com/raphaelgruber/courseforge/internal/models"
	"github.com/raphaelgruber/courseforge/internal/moderation"
)

// memStore is an in-memory Store enforcing the same uniqueness rules as
// the real one, usable without a database.
type memStore struct {
	mu          sync.Mutex
	configs     map[string]*models.CourseConfig
	syllabi     map[string]*models.Syllabus
	jobs        map[string]*models.GenerationJob
	jobOrder    []string
	content     map[string]*models.ContentItem
	enrollments map[string]*models.Enrollment
}

func newMemStore() *memStore {
	return &memStore{
		configs:     map[string]*models.CourseConfig{},
		syllabi:     map[string]*models.Syllabus{},
		jobs:        map[string]*models.GenerationJob{},
		content:     map[string]*models.ContentItem{},
		enrollments: map[string]*models.Enrollment{},
	}
}

func rid(table, id string) surrealmodels.RecordID {
	return surrealmodels.RecordID{Table: table, ID: id}
}

func contentKey(courseID string, m, t int) string {
	return models.TopicTarget(courseID, m, t)
}

func (s *memStore) CreateCourseConfig(ctx context.Context, id, topic, courseContext string, depth int, ownerID string) (*models.CourseConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := &models.CourseConfig{
		ID: rid("course_config", id), Topic: topic, Context: courseContext,
		Depth: depth, OwnerID: ownerID, Created: time.Now(),
	}
	s.configs[id] = cfg
	return cfg, nil
}

func (s *memStore) GetCourseConfig(ctx context.Context, id string) (*models.CourseConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return cfg, nil
}

func (s *memStore) CreateSyllabus(ctx context.Context, courseID string) (*models.Syllabus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	syl := &models.Syllabus{
		ID: rid("syllabus", "s-"+courseID), CourseID: courseID,
		Status: models.SyllabusPending, Created: time.Now(),
	}
	s.syllabi[courseID] = syl
	return syl, nil
}

func (s *memStore) GetSyllabusByCourse(ctx context.Context, courseID string) (*models.Syllabus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	syl, ok := s.syllabi[courseID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return syl, nil
}

func (s *memStore) CreateJob(ctx context.Context, id, target string, kind models.JobKind) (*models.GenerationJob, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, jid := range s.jobOrder {
		j := s.jobs[jid]
		if j.Target == target && !j.Status.Terminal() {
			return j, false, nil
		}
	}
	job := &models.GenerationJob{
		ID: rid("generation_job", id), Target: target, Kind: kind,
		Status: models.JobPending, Created: time.Now(),
	}
	s.jobs[id] = job
	s.jobOrder = append(s.jobOrder, id)
	return job, true, nil
}

func (s *memStore) GetJob(ctx context.Context, id string) (*models.GenerationJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return j, nil
}

func (s *memStore) GetActiveJob(ctx context.Context, target string) (*models.GenerationJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, jid := range s.jobOrder {
		j := s.jobs[jid]
		if j.Target == target && !j.Status.Terminal() {
			return j, nil
		}
	}
	return nil, nil
}

func (s *memStore) GetLatestJob(ctx context.Context, target string) (*models.GenerationJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.jobOrder) - 1; i >= 0; i-- {
		j := s.jobs[s.jobOrder[i]]
		if j.Target == target {
			return j, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *memStore) ListJobs(ctx context.Context, limit int) ([]models.GenerationJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.GenerationJob, 0, len(s.jobOrder))
	for i := len(s.jobOrder) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, *s.jobs[s.jobOrder[i]])
	}
	return out, nil
}

func (s *memStore) ListActiveJobs(ctx context.Context) ([]models.GenerationJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.GenerationJob
	for _, jid := range s.jobOrder {
		if j := s.jobs[jid]; !j.Status.Terminal() {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (s *memStore) GetContentItem(ctx context.Context, courseID string, moduleIndex, topicIndex int, contentType models.ContentType) (*models.ContentItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.content[contentKey(courseID, moduleIndex, topicIndex)]
	if !ok {
		return nil, db.ErrNotFound
	}
	return item, nil
}

func (s *memStore) putContent(courseID string, moduleIndex, topicIndex int, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content[contentKey(courseID, moduleIndex, topicIndex)] = &models.ContentItem{
		ID: rid("content_item", shortID()), CourseID: courseID,
		ModuleIndex: moduleIndex, TopicIndex: topicIndex,
		ContentType: models.ContentTypeText, Payload: payload,
	}
}

func (s *memStore) CreateEnrollment(ctx context.Context, id, userID, courseID string) (*models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.enrollments {
		if existing.UserID == userID && existing.CourseID == courseID {
			return nil, db.ErrAlreadyExists
		}
	}
	e := &models.Enrollment{
		ID: rid("enrollment", id), UserID: userID, CourseID: courseID,
		EnrolledAt: time.Now(),
	}
	s.enrollments[id] = e
	return e, nil
}

func (s *memStore) GetEnrollment(ctx context.Context, id string) (*models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enrollments[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return e, nil
}

func (s *memStore) AdvanceEnrollment(ctx context.Context, id string, moduleIndex int) (*models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enrollments[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	if moduleIndex > e.CurrentModuleIndex {
		e.CurrentModuleIndex = moduleIndex
	}
	return e, nil
}

func (s *memStore) AddCompletedTopic(ctx context.Context, id string, ref models.TopicRef) (*models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enrollments[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	if !e.HasCompleted(ref.Module, ref.Topic) {
		e.CompletedTopics = append(e.CompletedTopics, ref)
	}
	return e, nil
}

// allowAllGate approves everything.
type allowAllGate struct{}

func (allowAllGate) Check(ctx context.Context, topic, courseContext string) moderation.Verdict {
	return moderation.Verdict{Safe: true}
}

// denyGate rejects everything with a fixed reason.
type denyGate struct{ reason string }

func (g denyGate) Check(ctx context.Context, topic, courseContext string) moderation.Verdict {
	return moderation.Verdict{Safe: false, Reason: g.reason}
}

// recordingSyllabusRunner records dispatches without doing any work.
type recordingSyllabusRunner struct {
	mu    sync.Mutex
	calls []string // courseID per call
}

func (r *recordingSyllabusRunner) Run(ctx context.Context, jobID, courseID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, courseID)
	return nil
}

func (r *recordingSyllabusRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// recordingTopicRunner records dispatches without doing any work.
type recordingTopicRunner struct {
	mu    sync.Mutex
	calls []models.TopicRef
}

func (r *recordingTopicRunner) Run(ctx context.Context, jobID, courseID string, moduleIndex, topicIndex int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, models.TopicRef{Module: moduleIndex, Topic: topicIndex})
	return nil
}

func (r *recordingTopicRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// fixture wires a CourseService over the in-memory store.
type fixture struct {
	store       *memStore
	syllabusRun *recordingSyllabusRunner
	topicRun    *recordingTopicRunner
	courses     *CourseService
	progress    *ProgressService
}

func newFixture(gate SafetyGate) *fixture {
	store := newMemStore()
	sr := &recordingSyllabusRunner{}
	tr := &recordingTopicRunner{}
	log := discardLogger()
	return &fixture{
		store:       store,
		syllabusRun: sr,
		topicRun:    tr,
		courses:     NewCourseService(store, gate, sr, tr, log),
		progress:    NewProgressService(store, log),
	}
}

// seedCompletedCourse stores a course with a completed depth-1 syllabus
// (3 modules of 3 topics) directly, bypassing generation.
func (f *fixture) seedCompletedCourse(courseID string) {
	ctx := context.Background()
	f.store.CreateCourseConfig(ctx, courseID, "Test Topic", "", 1, "u1")
	f.store.CreateSyllabus(ctx, courseID)

	modules := make([]models.Module, 3)
	for mi := range modules {
		topics := make([]models.Topic, 3)
		for ti := range topics {
			topics[ti] = models.Topic{Summary: "topic", Keywords: []string{"a", "b", "c"}}
		}
		modules[mi] = models.Module{Summary: "module", Topics: topics}
	}

	f.store.mu.Lock()
	syl := f.store.syllabi[courseID]
	syl.Status = models.SyllabusCompleted
	syl.Modules = modules
	f.store.mu.Unlock()
}
