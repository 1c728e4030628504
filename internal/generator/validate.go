package generator

import (
	"fmt"
	"strings"

	"github.com/raphaelgruber/courseforge/internal/models"
)

// Bounds on generated syllabus fields. A syllabus violating any of them
// is rejected wholesale; nothing partial is ever persisted.
const (
	minTopicKeywords  = 3
	maxTopicKeywords  = 10
	minCourseKeywords = 5
	maxCourseKeywords = 20
	minSeedContentLen = 100
	maxSeedContentLen = 2000
)

// ValidateSyllabus checks a generated syllabus against the structural
// contract for the given depth. Returns the first violation found.
func ValidateSyllabus(depth int, modules []models.Module, keywords []string) error {
	structure, ok := StructureForDepth(depth)
	if !ok {
		return fmt.Errorf("depth %d out of range", depth)
	}

	if len(modules) != structure.Modules {
		return fmt.Errorf("expected %d modules, got %d", structure.Modules, len(modules))
	}

	if len(keywords) < minCourseKeywords || len(keywords) > maxCourseKeywords {
		return fmt.Errorf("course keywords: expected %d-%d, got %d", minCourseKeywords, maxCourseKeywords, len(keywords))
	}
	for i, kw := range keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("course keyword %d is empty", i)
		}
	}

	for mi, module := range modules {
		if strings.TrimSpace(module.Summary) == "" {
			return fmt.Errorf("module %d: empty summary", mi)
		}
		if len(module.Topics) != structure.TopicsPerModule {
			return fmt.Errorf("module %d: expected %d topics, got %d", mi, structure.TopicsPerModule, len(module.Topics))
		}
		for ti, topic := range module.Topics {
			if err := validateTopic(topic); err != nil {
				return fmt.Errorf("module %d topic %d: %w", mi, ti, err)
			}
		}
	}

	return nil
}

func validateTopic(topic models.Topic) error {
	if strings.TrimSpace(topic.Summary) == "" {
		return fmt.Errorf("empty summary")
	}
	if len(topic.Keywords) < minTopicKeywords || len(topic.Keywords) > maxTopicKeywords {
		return fmt.Errorf("keywords: expected %d-%d, got %d", minTopicKeywords, maxTopicKeywords, len(topic.Keywords))
	}
	for i, kw := range topic.Keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("keyword %d is empty", i)
		}
	}
	n := len(topic.SeedContent)
	if n < minSeedContentLen || n > maxSeedContentLen {
		return fmt.Errorf("seed content: expected %d-%d chars, got %d", minSeedContentLen, maxSeedContentLen, n)
	}
	return nil
}
