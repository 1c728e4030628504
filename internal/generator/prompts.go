package generator

import (
	"fmt"
	"strings"

	"github.com/raphaelgruber/courseforge/internal/models"
)

const syllabusSystemPrompt = `You are an expert curriculum designer. You produce complete course syllabi as a single JSON object and nothing else. No prose, no markdown fences.`

const topicSystemPrompt = `You are an expert educator writing course material. You write clear, well-structured lesson content in plain prose. Do not include JSON or code fences unless the subject itself calls for code examples.`

// buildSyllabusPrompt renders the user prompt for syllabus generation.
func buildSyllabusPrompt(cfg *models.CourseConfig, structure Structure) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Design a course on %q.\n\n", cfg.Topic)
	if strings.TrimSpace(cfg.Context) != "" {
		fmt.Fprintf(&b, "Additional context from the learner: %s\n\n", cfg.Context)
	}
	fmt.Fprintf(&b, "The course is %s.\n\n", DepthDescription(cfg.Depth))

	fmt.Fprintf(&b, "Structure requirements (follow them exactly):\n")
	fmt.Fprintf(&b, "- exactly %d modules\n", structure.Modules)
	fmt.Fprintf(&b, "- exactly %d topics per module\n", structure.TopicsPerModule)
	fmt.Fprintf(&b, "- %d to %d keywords per topic\n", minTopicKeywords, maxTopicKeywords)
	fmt.Fprintf(&b, "- %d to %d keywords for the course as a whole\n", minCourseKeywords, maxCourseKeywords)
	fmt.Fprintf(&b, "- each topic's seed_content is a short standalone introduction of %d to %d characters\n\n", minSeedContentLen, maxSeedContentLen)

	b.WriteString(`Respond with a single JSON object of this shape:
{
  "keywords": ["..."],
  "modules": [
    {
      "summary": "one-sentence module summary",
      "topics": [
        {
          "summary": "one-sentence topic summary",
          "keywords": ["..."],
          "seed_content": "short introductory text for this topic"
        }
      ]
    }
  ]
}`)

	return b.String()
}

// buildTopicPrompt renders the user prompt for expanding one topic into
// full lesson content.
func buildTopicPrompt(cfg *models.CourseConfig, syllabus *models.Syllabus, moduleIndex, topicIndex int) string {
	module := syllabus.Modules[moduleIndex]
	topic := module.Topics[topicIndex]

	var b strings.Builder

	fmt.Fprintf(&b, "Write the full lesson for one topic of a course on %q.\n", cfg.Topic)
	fmt.Fprintf(&b, "The course is %s.\n\n", DepthDescription(cfg.Depth))

	fmt.Fprintf(&b, "Module %d of %d: %s\n", moduleIndex+1, len(syllabus.Modules), module.Summary)
	fmt.Fprintf(&b, "Topic %d of %d: %s\n", topicIndex+1, len(module.Topics), topic.Summary)
	if len(topic.Keywords) > 0 {
		fmt.Fprintf(&b, "Key concepts to cover: %s\n", strings.Join(topic.Keywords, ", "))
	}
	fmt.Fprintf(&b, "\nExpand on this introduction without repeating it verbatim:\n%s\n\n", topic.SeedContent)

	b.WriteString("Write a complete, self-contained lesson a learner can study on its own. Use headings and short paragraphs. Aim for thorough coverage of the key concepts at the stated level.")

	return b.String()
}
