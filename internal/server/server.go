// Package server exposes the course generation workflows over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/raphaelgruber/courseforge/internal/metrics"
	"github.com/raphaelgruber/courseforge/internal/service"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP API server. It owns the router, the websocket hub,
// and the outer net/http server lifecycle.
type Server struct {
	engine   *gin.Engine
	courses  *service.CourseService
	progress *service.ProgressService
	metrics  *metrics.Collector
	hub      *Hub
	log      *slog.Logger
	httpSrv  *http.Server
}

// New creates the API server and registers all routes.
func New(courses *service.CourseService, progress *service.ProgressService, mc *metrics.Collector, log *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		engine:   gin.New(),
		courses:  courses,
		progress: progress,
		metrics:  mc,
		hub:      newHub(courses, log),
		log:      log,
	}

	s.engine.Use(gin.Recovery(), RequestLogger(log))
	s.routes()
	return s
}

// Handler returns the HTTP handler, used directly by tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.GET("/healthcheck", s.healthcheck)

	api := s.engine.Group("/api/v1")

	api.POST("/courses", s.createCourse)
	api.GET("/courses/:id", s.getCourse)
	api.GET("/courses/:id/syllabus", s.getSyllabus)
	api.GET("/courses/:id/syllabus/status", s.syllabusStatus)
	api.POST("/courses/:id/syllabus/generate", s.requestSyllabusGeneration)

	api.POST("/courses/:id/modules/:m/topics/:t/content", s.requestTopicContent)
	api.GET("/courses/:id/modules/:m/topics/:t/content", s.getTopicContent)
	api.GET("/courses/:id/modules/:m/topics/:t/status", s.topicContentStatus)

	api.GET("/jobs", s.listJobs)
	api.GET("/jobs/watch", s.watchJobs)
	api.GET("/jobs/:id", s.getJob)

	api.POST("/enrollments", s.enroll)
	api.GET("/enrollments/:id/progress", s.getProgress)
	api.POST("/enrollments/:id/advance", s.advanceModule)
	api.POST("/enrollments/:id/topics/complete", s.markTopicComplete)

	api.GET("/stats", s.stats)
}

// Run serves until ctx is cancelled, then shuts down gracefully and
// waits for in-flight generation jobs to drain.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go s.hub.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	s.courses.Wait()
	return nil
}

func (s *Server) healthcheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, s.metrics.Snapshot())
}
