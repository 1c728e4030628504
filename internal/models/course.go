// Package models defines data structures for the Courseforge content database.
package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Depth bounds for course configurations.
const (
	MinDepth = 1
	MaxDepth = 5
)

// CourseConfig is the immutable configuration a course is generated from.
// Created once by user action and never mutated afterwards.
type CourseConfig struct {
	ID      surrealmodels.RecordID `json:"id"`
	Topic   string                 `json:"topic"`
	Context string                 `json:"context"`
	Depth   int                    `json:"depth"` // 1-5, controls structure and rigor
	OwnerID string                 `json:"owner_id"`
	Created time.Time              `json:"created"`
}

// SyllabusStatus mirrors the lifecycle of the syllabus-kind generation job.
type SyllabusStatus string

const (
	SyllabusPending    SyllabusStatus = "pending"
	SyllabusGenerating SyllabusStatus = "generating"
	SyllabusCompleted  SyllabusStatus = "completed"
	SyllabusFailed     SyllabusStatus = "failed"
)

// Topic is one unit of a module. SeedContent is the short skeletal text
// produced at syllabus-generation time; expanded content lives in a
// separate ContentItem produced later on demand.
type Topic struct {
	Summary     string   `json:"summary"`
	Keywords    []string `json:"keywords"`
	SeedContent string   `json:"seed_content"`
}

// Module is an ordered group of topics. Immutable after syllabus completion.
type Module struct {
	Summary string  `json:"summary"`
	Topics  []Topic `json:"topics"`
}

// Syllabus is the full generated outline of one course, 1:1 with its
// CourseConfig. Modules are populated only in the completed state.
type Syllabus struct {
	ID       surrealmodels.RecordID `json:"id"`
	CourseID string                 `json:"course_id"`
	Status   SyllabusStatus         `json:"status"`
	Modules  []Module               `json:"modules"`
	Keywords []string               `json:"keywords"`
	Error    *string                `json:"error,omitempty"`
	Created  time.Time              `json:"created"`
	Updated  time.Time              `json:"updated"`
}

// TotalTopics returns the number of topics across all modules.
func (s *Syllabus) TotalTopics() int {
	n := 0
	for _, m := range s.Modules {
		n += len(m.Topics)
	}
	return n
}

// TopicAt returns the topic at (moduleIndex, topicIndex), or nil if the
// indexes are out of range or the syllabus has no modules yet.
func (s *Syllabus) TopicAt(moduleIndex, topicIndex int) *Topic {
	if moduleIndex < 0 || moduleIndex >= len(s.Modules) {
		return nil
	}
	m := s.Modules[moduleIndex]
	if topicIndex < 0 || topicIndex >= len(m.Topics) {
		return nil
	}
	return &m.Topics[topicIndex]
}
