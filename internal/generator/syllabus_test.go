package generator

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/courseforge/internal/models"
)

func validSyllabusJSON(t *testing.T, depth int) string {
	t.Helper()
	payload := syllabusPayload{
		Keywords: validKeywords(),
		Modules:  validModules(t, depth),
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return string(raw)
}

func TestSyllabusGeneratorRun(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		store := newFakeStore(1, "j1")
		model := &fakeModel{responses: []string{validSyllabusJSON(t, 1)}}
		gen := NewSyllabusGenerator(store, model, testLogger())

		err := gen.Run(ctx, "j1", "c1")
		require.NoError(t, err)

		assert.Equal(t, models.SyllabusCompleted, store.syllabus.Status)
		assert.Len(t, store.syllabus.Modules, 3)
		assert.Equal(t, models.JobCompleted, store.job.Status)
		require.NotNil(t, store.job.ResultRef)
		assert.Equal(t, "s1", *store.job.ResultRef)
		assert.Equal(t, 1, model.calls)
	})

	t.Run("retries on malformed JSON", func(t *testing.T) {
		store := newFakeStore(1, "j1")
		model := &fakeModel{responses: []string{"not json at all", validSyllabusJSON(t, 1)}}
		gen := NewSyllabusGenerator(store, model, testLogger())

		err := gen.Run(ctx, "j1", "c1")
		require.NoError(t, err)
		assert.Equal(t, 2, model.calls)
		assert.Equal(t, models.SyllabusCompleted, store.syllabus.Status)
	})

	t.Run("retries on contract violation", func(t *testing.T) {
		store := newFakeStore(1, "j1")
		// Valid JSON for the wrong depth: 5 modules instead of 3.
		model := &fakeModel{responses: []string{validSyllabusJSON(t, 5), validSyllabusJSON(t, 1)}}
		gen := NewSyllabusGenerator(store, model, testLogger())

		err := gen.Run(ctx, "j1", "c1")
		require.NoError(t, err)
		assert.Equal(t, 2, model.calls)
	})

	t.Run("fails job and syllabus after exhausted retries", func(t *testing.T) {
		store := newFakeStore(1, "j1")
		model := &fakeModel{responses: []string{"garbage", "more garbage"}}
		gen := NewSyllabusGenerator(store, model, testLogger())

		err := gen.Run(ctx, "j1", "c1")
		require.Error(t, err)

		assert.Equal(t, models.SyllabusFailed, store.syllabus.Status)
		require.NotNil(t, store.syllabus.Error)
		assert.Equal(t, models.JobFailed, store.job.Status)
		require.NotNil(t, store.job.Error)
		assert.Empty(t, store.syllabus.Modules)
	})

	t.Run("fatal provider error aborts without retry", func(t *testing.T) {
		store := newFakeStore(1, "j1")
		model := &fakeModel{errs: []error{errors.New("insufficient credit balance")}}
		gen := NewSyllabusGenerator(store, model, testLogger())

		err := gen.Run(ctx, "j1", "c1")
		require.Error(t, err)
		assert.Equal(t, 1, model.calls)
		assert.Equal(t, models.JobFailed, store.job.Status)
	})

	t.Run("begin processing failure stops before generation", func(t *testing.T) {
		store := newFakeStore(1, "j1")
		store.beginErr = errors.New("job is not pending")
		model := &fakeModel{responses: []string{validSyllabusJSON(t, 1)}}
		gen := NewSyllabusGenerator(store, model, testLogger())

		err := gen.Run(ctx, "j1", "c1")
		require.Error(t, err)
		assert.Equal(t, 0, model.calls)
	})

	t.Run("persistence failure fails the job", func(t *testing.T) {
		store := newFakeStore(1, "j1")
		store.completeErr = errors.New("write conflict")
		model := &fakeModel{responses: []string{validSyllabusJSON(t, 1)}}
		gen := NewSyllabusGenerator(store, model, testLogger())

		err := gen.Run(ctx, "j1", "c1")
		require.Error(t, err)
		assert.Equal(t, models.JobFailed, store.job.Status)
	})

	t.Run("panic is recovered and recorded", func(t *testing.T) {
		store := newFakeStore(1, "j1")
		gen := NewSyllabusGenerator(store, panicModel{}, testLogger())

		err := gen.Run(ctx, "j1", "c1")
		require.Error(t, err)
		assert.Equal(t, models.JobFailed, store.job.Status)
		require.NotNil(t, store.job.Error)
		assert.Contains(t, *store.job.Error, "internal error")
	})
}
