package models

import (
	"fmt"
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// JobKind discriminates what a generation job produces.
type JobKind string

const (
	JobKindSyllabus     JobKind = "syllabus"
	JobKindTopicContent JobKind = "topic_content"
)

// JobStatus is the state of a generation job.
// Transitions: pending -> processing -> completed | failed.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// GenerationJob is the durable record of one generation attempt for a
// target. At most one non-terminal job may exist per target; the store
// enforces that with a unique index, not caller coordination. Terminal
// jobs are never deleted and serve as an audit trail.
type GenerationJob struct {
	ID        surrealmodels.RecordID `json:"id"`
	Target    string                 `json:"target"`
	Kind      JobKind                `json:"kind"`
	Status    JobStatus              `json:"status"`
	Error     *string                `json:"error,omitempty"`      // set iff failed
	ResultRef *string                `json:"result_ref,omitempty"` // set iff completed
	Created   time.Time              `json:"created"`
	Updated   time.Time              `json:"updated"`
}

// SyllabusTarget is the job target for a course's syllabus.
func SyllabusTarget(courseID string) string {
	return "course:" + courseID
}

// TopicTarget is the job target for one (course, module, topic) triple.
func TopicTarget(courseID string, moduleIndex, topicIndex int) string {
	return fmt.Sprintf("course:%s/m%d/t%d", courseID, moduleIndex, topicIndex)
}
