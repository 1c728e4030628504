package models

import (
	"fmt"
	"math"
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// TopicRef addresses one topic within a course.
type TopicRef struct {
	Module int `json:"module"`
	Topic  int `json:"topic"`
}

// Key renders a stable "m:t" form used for set membership.
func (r TopicRef) Key() string {
	return fmt.Sprintf("%d:%d", r.Module, r.Topic)
}

// Enrollment tracks one learner's position in one course. CompletedTopics
// is a set; re-completing a topic is a no-op. The Completed flag is set
// only by the assessment flow, never by topic completion.
type Enrollment struct {
	ID                 surrealmodels.RecordID `json:"id"`
	UserID             string                 `json:"user_id"`
	CourseID           string                 `json:"course_id"`
	CurrentModuleIndex int                    `json:"current_module_index"`
	CompletedTopics    []TopicRef             `json:"completed_topics"`
	Completed          bool                   `json:"completed"`
	EnrolledAt         time.Time              `json:"enrolled_at"`
}

// HasCompleted reports set membership for (moduleIndex, topicIndex).
func (e *Enrollment) HasCompleted(moduleIndex, topicIndex int) bool {
	for _, r := range e.CompletedTopics {
		if r.Module == moduleIndex && r.Topic == topicIndex {
			return true
		}
	}
	return false
}

// ProgressPercent derives the completion percentage. Always computed,
// never stored: round(100 * completed / total).
func ProgressPercent(completedTopics, totalTopics int) int {
	if totalTopics <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(completedTopics) / float64(totalTopics)))
}
