package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/courseforge/internal/models"
)

func TestRequestTopicContent(t *testing.T) {
	ctx := context.Background()

	t.Run("dispatches a job for a valid topic", func(t *testing.T) {
		f := newFixture(allowAllGate{})
		f.seedCompletedCourse("c1")

		job, err := f.courses.RequestTopicContent(ctx, "c1", 1, 2)
		require.NoError(t, err)
		f.courses.Wait()

		assert.Equal(t, models.JobKindTopicContent, job.Kind)
		assert.Equal(t, models.TopicTarget("c1", 1, 2), job.Target)
		require.Equal(t, 1, f.topicRun.count())
		assert.Equal(t, models.TopicRef{Module: 1, Topic: 2}, f.topicRun.calls[0])
	})

	t.Run("requires a completed syllabus", func(t *testing.T) {
		f := newFixture(allowAllGate{})
		f.store.CreateCourseConfig(ctx, "c1", "T", "", 1, "u1")
		f.store.CreateSyllabus(ctx, "c1")

		_, err := f.courses.RequestTopicContent(ctx, "c1", 0, 0)
		assert.ErrorIs(t, err, ErrSyllabusNotReady)
	})

	t.Run("rejects out-of-range indexes", func(t *testing.T) {
		f := newFixture(allowAllGate{})
		f.seedCompletedCourse("c1")

		_, err := f.courses.RequestTopicContent(ctx, "c1", 5, 0)
		assert.ErrorIs(t, err, ErrTopicOutOfRange)
		_, err = f.courses.RequestTopicContent(ctx, "c1", 0, -1)
		assert.ErrorIs(t, err, ErrTopicOutOfRange)
	})

	t.Run("unknown course", func(t *testing.T) {
		f := newFixture(allowAllGate{})
		_, err := f.courses.RequestTopicContent(ctx, "nope", 0, 0)
		assert.ErrorIs(t, err, ErrCourseNotFound)
	})

	t.Run("second request returns the active job without redispatch", func(t *testing.T) {
		f := newFixture(allowAllGate{})
		f.seedCompletedCourse("c1")

		first, err := f.courses.RequestTopicContent(ctx, "c1", 0, 0)
		require.NoError(t, err)
		second, err := f.courses.RequestTopicContent(ctx, "c1", 0, 0)
		require.NoError(t, err)
		f.courses.Wait()

		assert.Equal(t, models.MustRecordIDString(first.ID), models.MustRecordIDString(second.ID))
		assert.Equal(t, 1, f.topicRun.count())
	})

	t.Run("existing content short-circuits to the finished job", func(t *testing.T) {
		f := newFixture(allowAllGate{})
		f.seedCompletedCourse("c1")

		job, err := f.courses.RequestTopicContent(ctx, "c1", 0, 0)
		require.NoError(t, err)
		f.courses.Wait()

		// Simulate the job finishing and content landing.
		f.store.mu.Lock()
		f.store.jobs[models.MustRecordIDString(job.ID)].Status = models.JobCompleted
		f.store.mu.Unlock()
		f.store.putContent("c1", 0, 0, models.TextPayload("lesson"))

		again, err := f.courses.RequestTopicContent(ctx, "c1", 0, 0)
		require.NoError(t, err)
		assert.Equal(t, models.JobCompleted, again.Status)
		assert.Equal(t, 1, f.topicRun.count())
	})
}

func TestGetTopicContent(t *testing.T) {
	ctx := context.Background()

	t.Run("unwraps canonical payload", func(t *testing.T) {
		f := newFixture(allowAllGate{})
		f.seedCompletedCourse("c1")
		f.store.putContent("c1", 0, 0, models.TextPayload("the lesson text"))

		text, err := f.courses.GetTopicContent(ctx, "c1", 0, 0)
		require.NoError(t, err)
		assert.Equal(t, "the lesson text", text)
	})

	t.Run("accepts legacy bare-string payload", func(t *testing.T) {
		f := newFixture(allowAllGate{})
		f.seedCompletedCourse("c1")
		f.store.putContent("c1", 0, 0, "old style text")

		text, err := f.courses.GetTopicContent(ctx, "c1", 0, 0)
		require.NoError(t, err)
		assert.Equal(t, "old style text", text)
	})

	t.Run("missing content", func(t *testing.T) {
		f := newFixture(allowAllGate{})
		f.seedCompletedCourse("c1")

		_, err := f.courses.GetTopicContent(ctx, "c1", 0, 0)
		assert.ErrorIs(t, err, ErrContentNotFound)
	})
}

func TestTopicContentStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(allowAllGate{})
	f.seedCompletedCourse("c1")

	state, err := f.courses.TopicContentStatus(ctx, "c1", 0, 0)
	require.NoError(t, err)
	assert.False(t, state.HasContent)
	assert.Nil(t, state.Job)

	job, err := f.courses.RequestTopicContent(ctx, "c1", 0, 0)
	require.NoError(t, err)
	f.courses.Wait()

	state, err = f.courses.TopicContentStatus(ctx, "c1", 0, 0)
	require.NoError(t, err)
	assert.False(t, state.HasContent)
	require.NotNil(t, state.Job)
	assert.Equal(t, models.MustRecordIDString(job.ID), models.MustRecordIDString(state.Job.ID))

	f.store.putContent("c1", 0, 0, models.TextPayload("lesson"))
	state, err = f.courses.TopicContentStatus(ctx, "c1", 0, 0)
	require.NoError(t, err)
	assert.True(t, state.HasContent)
}
