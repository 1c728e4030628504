// Package service implements the course generation workflows on top of
// the store, the moderation gate, and the generators.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrCourseNotFound means no course configuration exists for the id.
	ErrCourseNotFound = errors.New("course not found")

	// ErrSyllabusNotReady means the syllabus has not completed, so
	// operations that need its structure cannot proceed.
	ErrSyllabusNotReady = errors.New("syllabus not ready")

	// ErrContentNotFound means no expanded content exists for the topic.
	ErrContentNotFound = errors.New("content not found")

	// ErrEnrollmentNotFound means no enrollment exists for the id.
	ErrEnrollmentNotFound = errors.New("enrollment not found")

	// ErrJobNotFound means no generation job exists for the id.
	ErrJobNotFound = errors.New("job not found")

	// ErrTopicOutOfRange means the module or topic index does not
	// address a topic in the completed syllabus.
	ErrTopicOutOfRange = errors.New("topic out of range")

	// ErrInvalidDepth means the requested depth is outside 1-5.
	ErrInvalidDepth = errors.New("depth must be between 1 and 5")

	// ErrTopicRequired means the course request had an empty topic.
	ErrTopicRequired = errors.New("topic is required")

	// ErrSyllabusActive means generation cannot be re-requested while
	// the syllabus job is still pending or processing.
	ErrSyllabusActive = errors.New("syllabus generation already in progress")

	// ErrAlreadyEnrolled means the user already has an enrollment in
	// the course.
	ErrAlreadyEnrolled = errors.New("user already enrolled in course")
)

// ModerationError reports a course request rejected by the content
// safety gate. Reason is safe to show to end users.
type ModerationError struct {
	Reason string
}

func (e *ModerationError) Error() string {
	return fmt.Sprintf("content rejected: %s", e.Reason)
}

// IsModerationError reports whether err is a moderation rejection and
// returns it when so.
func IsModerationError(err error) (*ModerationError, bool) {
	var me *ModerationError
	if errors.As(err, &me) {
		return me, true
	}
	return nil, false
}
