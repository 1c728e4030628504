package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jobServer serves a scripted sequence of job statuses, advancing one
// step per poll.
type jobServer struct {
	mu       sync.Mutex
	statuses []string
	polls    int
}

func (s *jobServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		i := s.polls
		if i >= len(s.statuses) {
			i = len(s.statuses) - 1
		}
		s.polls++
		status := s.statuses[i]
		s.mu.Unlock()

		json.NewEncoder(w).Encode(Job{ID: "j1", Target: "course:c1", Kind: "syllabus", Status: status})
	}
}

func TestWaitForJob(t *testing.T) {
	t.Run("polls until terminal", func(t *testing.T) {
		js := &jobServer{statuses: []string{"pending", "processing", "processing", "completed"}}
		srv := httptest.NewServer(js.handler())
		defer srv.Close()

		w := NewWatcher(New(srv.URL), 5*time.Millisecond)

		var seen []string
		job, err := w.WaitForJob(context.Background(), "j1", func(j Job) {
			seen = append(seen, j.Status)
		})
		require.NoError(t, err)

		assert.Equal(t, "completed", job.Status)
		assert.True(t, job.Terminal())
		assert.Equal(t, []string{"pending", "processing", "completed"}, seen)
		assert.Equal(t, WatcherIdle, w.State())
	})

	t.Run("failed is terminal too", func(t *testing.T) {
		js := &jobServer{statuses: []string{"processing", "failed"}}
		srv := httptest.NewServer(js.handler())
		defer srv.Close()

		w := NewWatcher(New(srv.URL), 5*time.Millisecond)
		job, err := w.WaitForJob(context.Background(), "j1", nil)
		require.NoError(t, err)
		assert.Equal(t, "failed", job.Status)
	})

	t.Run("cancellation stops the loop", func(t *testing.T) {
		js := &jobServer{statuses: []string{"processing"}}
		srv := httptest.NewServer(js.handler())
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		w := NewWatcher(New(srv.URL), 5*time.Millisecond)
		_, err := w.WaitForJob(ctx, "j1", nil)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, WatcherIdle, w.State())
	})

	t.Run("server error surfaces", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		w := NewWatcher(New(srv.URL), 5*time.Millisecond)
		_, err := w.WaitForJob(context.Background(), "j1", nil)
		require.Error(t, err)
	})
}

func TestWatchActive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("active"))
		json.NewEncoder(w).Encode(map[string]any{
			"jobs": []Job{{ID: "j1", Status: "processing"}},
		})
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	w := NewWatcher(New(srv.URL), 5*time.Millisecond)

	var snapshots int
	err := func() error {
		defer cancel()
		return w.WatchActive(ctx, func(jobs []Job) {
			snapshots++
			if snapshots >= 2 {
				cancel()
			}
			assert.Len(t, jobs, 1)
		})
	}()

	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, snapshots, 2)
}

func TestNewWatcherDefaults(t *testing.T) {
	w := NewWatcher(New(""), 0)
	assert.Equal(t, DefaultPollInterval, w.interval)
	assert.Equal(t, WatcherIdle, w.State())
}
