package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/raphaelgruber/courseforge/internal/llm"
	"github.com/raphaelgruber/courseforge/internal/models"
)

// TopicContentGenerator runs topic-content generation jobs to completion.
type TopicContentGenerator struct {
	store Store
	model TextModel
	log   *slog.Logger
}

// NewTopicContentGenerator creates a topic content generator.
func NewTopicContentGenerator(store Store, model TextModel, log *slog.Logger) *TopicContentGenerator {
	return &TopicContentGenerator{store: store, model: model, log: log}
}

// Run executes one topic-content generation job. The job must be
// pending, the course syllabus must be completed, and the indexes must
// address an existing topic.
func (g *TopicContentGenerator) Run(ctx context.Context, jobID, courseID string, moduleIndex, topicIndex int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			reason := fmt.Sprintf("internal error: %v", r)
			g.log.Error("topic content generation panicked",
				"job_id", jobID, "course_id", courseID, "panic", r)
			g.failJob(ctx, jobID, reason)
			err = fmt.Errorf("topic content generation panicked: %v", r)
		}
	}()

	if _, err := g.store.BeginProcessing(ctx, jobID); err != nil {
		return fmt.Errorf("begin processing job %s: %w", jobID, err)
	}

	cfg, err := g.store.GetCourseConfig(ctx, courseID)
	if err != nil {
		g.failJob(ctx, jobID, "course configuration not found")
		return fmt.Errorf("get course config %s: %w", courseID, err)
	}

	syllabus, err := g.store.GetSyllabusByCourse(ctx, courseID)
	if err != nil {
		g.failJob(ctx, jobID, "syllabus not found")
		return fmt.Errorf("get syllabus for %s: %w", courseID, err)
	}
	if syllabus.Status != models.SyllabusCompleted {
		g.failJob(ctx, jobID, "syllabus is not completed")
		return fmt.Errorf("syllabus for %s is %s, not completed", courseID, syllabus.Status)
	}
	if syllabus.TopicAt(moduleIndex, topicIndex) == nil {
		g.failJob(ctx, jobID, "topic index out of range")
		return fmt.Errorf("no topic at m%d/t%d in course %s", moduleIndex, topicIndex, courseID)
	}

	content, genErr := g.generate(ctx, cfg, syllabus, moduleIndex, topicIndex)
	if genErr != nil {
		g.failJob(ctx, jobID, genErr.Error())
		return fmt.Errorf("generate content for %s m%d/t%d: %w", courseID, moduleIndex, topicIndex, genErr)
	}

	item, err := g.store.PutContentItem(ctx, courseID, moduleIndex, topicIndex,
		models.ContentTypeText, models.TextPayload(content))
	if err != nil {
		g.failJob(ctx, jobID, "failed to persist content")
		return fmt.Errorf("put content item: %w", err)
	}

	resultRef := models.MustRecordIDString(item.ID)
	if _, err := g.store.CompleteJob(ctx, jobID, resultRef); err != nil {
		return fmt.Errorf("complete job %s: %w", jobID, err)
	}

	g.log.Info("topic content generated",
		"job_id", jobID,
		"course_id", courseID,
		"module", moduleIndex,
		"topic", topicIndex,
		"chars", len(content))
	return nil
}

func (g *TopicContentGenerator) generate(ctx context.Context, cfg *models.CourseConfig, syllabus *models.Syllabus, moduleIndex, topicIndex int) (string, error) {
	prompt := buildTopicPrompt(cfg, syllabus, moduleIndex, topicIndex)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		raw, err := g.model.GenerateWithSystem(ctx, topicSystemPrompt, prompt)
		if err != nil {
			if llm.IsFatalAPIError(err) || ctx.Err() != nil {
				return "", err
			}
			lastErr = err
			continue
		}

		content := strings.TrimSpace(raw)
		if content == "" {
			lastErr = fmt.Errorf("model returned empty content")
			g.log.Warn("empty topic content, retrying", "attempt", attempt)
			continue
		}

		return content, nil
	}

	return "", lastErr
}

func (g *TopicContentGenerator) failJob(ctx context.Context, jobID, reason string) {
	if _, err := g.store.FailJob(ctx, jobID, reason); err != nil {
		g.log.Error("failed to mark job failed", "job_id", jobID, "error", err)
	}
}
