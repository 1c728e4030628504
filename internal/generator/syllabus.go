package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/courseforge/internal/llm"
	"github.com/raphaelgruber/courseforge/internal/models"
)

// maxAttempts bounds how often a generation is retried when the model
// returns malformed or out-of-contract output.
const maxAttempts = 2

// TextModel is the generative model surface the generators need.
// Satisfied by *llm.Model.
type TextModel interface {
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Store is the persistence surface the generators need. Satisfied by
// *db.Client.
type Store interface {
	GetCourseConfig(ctx context.Context, id string) (*models.CourseConfig, error)
	GetSyllabusByCourse(ctx context.Context, courseID string) (*models.Syllabus, error)
	MarkSyllabusGenerating(ctx context.Context, courseID string) error
	CompleteSyllabus(ctx context.Context, courseID string, modules []models.Module, keywords []string) (*models.Syllabus, error)
	FailSyllabus(ctx context.Context, courseID, reason string) error
	PutContentItem(ctx context.Context, courseID string, moduleIndex, topicIndex int, contentType models.ContentType, payload any) (*models.ContentItem, error)
	BeginProcessing(ctx context.Context, id string) (*models.GenerationJob, error)
	CompleteJob(ctx context.Context, id, resultRef string) (*models.GenerationJob, error)
	FailJob(ctx context.Context, id, reason string) (*models.GenerationJob, error)
}

// SyllabusGenerator runs syllabus-kind generation jobs to completion.
type SyllabusGenerator struct {
	store Store
	model TextModel
	log   *slog.Logger
}

// NewSyllabusGenerator creates a syllabus generator.
func NewSyllabusGenerator(store Store, model TextModel, log *slog.Logger) *SyllabusGenerator {
	return &SyllabusGenerator{store: store, model: model, log: log}
}

// syllabusPayload is the JSON shape the model is asked to produce.
type syllabusPayload struct {
	Keywords []string        `json:"keywords"`
	Modules  []models.Module `json:"modules"`
}

// Run executes one syllabus generation job. The job must be pending.
// Either the full validated syllabus is persisted and the job completed,
// or nothing is written and both the syllabus and the job are failed.
func (g *SyllabusGenerator) Run(ctx context.Context, jobID, courseID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			reason := fmt.Sprintf("internal error: %v", r)
			g.log.Error("syllabus generation panicked", "job_id", jobID, "course_id", courseID, "panic", r)
			g.fail(ctx, jobID, courseID, reason)
			err = fmt.Errorf("syllabus generation panicked: %v", r)
		}
	}()

	if _, err := g.store.BeginProcessing(ctx, jobID); err != nil {
		return fmt.Errorf("begin processing job %s: %w", jobID, err)
	}

	cfg, err := g.store.GetCourseConfig(ctx, courseID)
	if err != nil {
		g.fail(ctx, jobID, courseID, "course configuration not found")
		return fmt.Errorf("get course config %s: %w", courseID, err)
	}

	if err := g.store.MarkSyllabusGenerating(ctx, courseID); err != nil {
		g.fail(ctx, jobID, courseID, "syllabus not in a generatable state")
		return fmt.Errorf("mark syllabus generating: %w", err)
	}

	payload, genErr := g.generate(ctx, cfg)
	if genErr != nil {
		g.fail(ctx, jobID, courseID, genErr.Error())
		return fmt.Errorf("generate syllabus for %s: %w", courseID, genErr)
	}

	syllabus, err := g.store.CompleteSyllabus(ctx, courseID, payload.Modules, payload.Keywords)
	if err != nil {
		g.fail(ctx, jobID, courseID, "failed to persist syllabus")
		return fmt.Errorf("complete syllabus %s: %w", courseID, err)
	}

	resultRef := models.MustRecordIDString(syllabus.ID)
	if _, err := g.store.CompleteJob(ctx, jobID, resultRef); err != nil {
		return fmt.Errorf("complete job %s: %w", jobID, err)
	}

	g.log.Info("syllabus generated",
		"job_id", jobID,
		"course_id", courseID,
		"modules", len(payload.Modules),
		"topics", len(payload.Modules)*len(payload.Modules[0].Topics))
	return nil
}

// generate asks the model for a syllabus and retries once when the
// output fails to parse or validate. Fatal provider errors abort
// immediately.
func (g *SyllabusGenerator) generate(ctx context.Context, cfg *models.CourseConfig) (*syllabusPayload, error) {
	structure, ok := StructureForDepth(cfg.Depth)
	if !ok {
		return nil, fmt.Errorf("depth %d out of range", cfg.Depth)
	}
	prompt := buildSyllabusPrompt(cfg, structure)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		raw, err := g.model.GenerateJSON(ctx, syllabusSystemPrompt, prompt)
		if err != nil {
			if llm.IsFatalAPIError(err) || ctx.Err() != nil {
				return nil, err
			}
			lastErr = err
			continue
		}

		var payload syllabusPayload
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			lastErr = fmt.Errorf("model returned invalid JSON: %w", err)
			g.log.Warn("syllabus output unparseable, retrying", "attempt", attempt, "error", err)
			continue
		}

		if err := ValidateSyllabus(cfg.Depth, payload.Modules, payload.Keywords); err != nil {
			lastErr = fmt.Errorf("generated syllabus invalid: %w", err)
			g.log.Warn("syllabus output out of contract, retrying", "attempt", attempt, "error", err)
			continue
		}

		return &payload, nil
	}

	return nil, lastErr
}

// fail marks both the syllabus and the job failed. Errors here are
// logged, not returned; the original failure is what the caller reports.
func (g *SyllabusGenerator) fail(ctx context.Context, jobID, courseID, reason string) {
	if err := g.store.FailSyllabus(ctx, courseID, reason); err != nil {
		g.log.Error("failed to mark syllabus failed", "course_id", courseID, "error", err)
	}
	if _, err := g.store.FailJob(ctx, jobID, reason); err != nil {
		g.log.Error("failed to mark job failed", "job_id", jobID, "error", err)
	}
}
