// Package db provides error types for database operations.
package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

// Sentinel errors for database operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrActiveJobExists indicates a non-terminal generation job already
	// exists for the target. Raised by the unique index on active_key;
	// callers treat it as an idempotent enqueue, not a failure.
	ErrActiveJobExists = errors.New("active job exists for target")

	// ErrAlreadyExists indicates a record with the same unique key already
	// exists (enrollment per user+course, content item per address).
	ErrAlreadyExists = errors.New("record already exists")

	// ErrInvalidTransition indicates a job or syllabus state change that
	// the state machine does not permit (e.g. completing a pending job,
	// touching a terminal job).
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrTransactionConflict indicates a SurrealDB transaction conflict
	// from concurrent writers. Callers should typically retry or skip.
	ErrTransactionConflict = errors.New("transaction conflict")
)

// wrapQueryError inspects a SurrealDB error and wraps it with the
// appropriate sentinel if it matches a known query error pattern.
// Returns the original error otherwise.
func wrapQueryError(err error) error {
	if err == nil {
		return nil
	}

	var queryErr *surrealdb.QueryError
	if errors.As(err, &queryErr) {
		msg := queryErr.Message
		// Unique index violations phrase it as "already contains".
		if strings.Contains(msg, "already contains") || strings.Contains(msg, "already exists") {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, msg)
		}
		if strings.Contains(msg, "Transaction conflict") {
			return fmt.Errorf("%w: %s", ErrTransactionConflict, msg)
		}
	}

	return err
}
