package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/raphaelgruber/courseforge/internal/models"
	"github.com/raphaelgruber/courseforge/internal/service"
)

type createCourseRequest struct {
	Topic   string `json:"topic" binding:"required"`
	Context string `json:"context"`
	Depth   int    `json:"depth" binding:"required"`
	OwnerID string `json:"owner_id"`
}

type enrollRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	CourseID string `json:"course_id" binding:"required"`
}

type advanceRequest struct {
	ModuleIndex int `json:"module_index"`
}

type completeTopicRequest struct {
	ModuleIndex int `json:"module_index"`
	TopicIndex  int `json:"topic_index"`
}

// jobDTO is the wire form of a generation job; record ids are flattened
// to their string part.
type jobDTO struct {
	ID        string    `json:"id"`
	Target    string    `json:"target"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	Error     *string   `json:"error,omitempty"`
	ResultRef *string   `json:"result_ref,omitempty"`
	Created   time.Time `json:"created"`
	Updated   time.Time `json:"updated"`
}

func toJobDTO(job *models.GenerationJob) jobDTO {
	return jobDTO{
		ID:        models.MustRecordIDString(job.ID),
		Target:    job.Target,
		Kind:      string(job.Kind),
		Status:    string(job.Status),
		Error:     job.Error,
		ResultRef: job.ResultRef,
		Created:   job.Created,
		Updated:   job.Updated,
	}
}

type courseDTO struct {
	ID      string    `json:"id"`
	Topic   string    `json:"topic"`
	Context string    `json:"context,omitempty"`
	Depth   int       `json:"depth"`
	OwnerID string    `json:"owner_id,omitempty"`
	Created time.Time `json:"created"`
}

func toCourseDTO(cfg *models.CourseConfig) courseDTO {
	return courseDTO{
		ID:      models.MustRecordIDString(cfg.ID),
		Topic:   cfg.Topic,
		Context: cfg.Context,
		Depth:   cfg.Depth,
		OwnerID: cfg.OwnerID,
		Created: cfg.Created,
	}
}

type syllabusDTO struct {
	CourseID string          `json:"course_id"`
	Status   string          `json:"status"`
	Modules  []models.Module `json:"modules,omitempty"`
	Keywords []string        `json:"keywords,omitempty"`
	Error    *string         `json:"error,omitempty"`
	Updated  time.Time       `json:"updated"`
}

func toSyllabusDTO(s *models.Syllabus) syllabusDTO {
	return syllabusDTO{
		CourseID: s.CourseID,
		Status:   string(s.Status),
		Modules:  s.Modules,
		Keywords: s.Keywords,
		Error:    s.Error,
		Updated:  s.Updated,
	}
}

type enrollmentDTO struct {
	ID                 string             `json:"id"`
	UserID             string             `json:"user_id"`
	CourseID           string             `json:"course_id"`
	CurrentModuleIndex int                `json:"current_module_index"`
	CompletedTopics    []models.TopicRef  `json:"completed_topics"`
	Completed          bool               `json:"completed"`
	EnrolledAt         time.Time          `json:"enrolled_at"`
}

func toEnrollmentDTO(e *models.Enrollment) enrollmentDTO {
	topics := e.CompletedTopics
	if topics == nil {
		topics = []models.TopicRef{}
	}
	return enrollmentDTO{
		ID:                 models.MustRecordIDString(e.ID),
		UserID:             e.UserID,
		CourseID:           e.CourseID,
		CurrentModuleIndex: e.CurrentModuleIndex,
		CompletedTopics:    topics,
		Completed:          e.Completed,
		EnrolledAt:         e.EnrolledAt,
	}
}

type progressDTO struct {
	Enrollment         enrollmentDTO `json:"enrollment"`
	TotalTopics        int           `json:"total_topics"`
	CompletedTopics    int           `json:"completed_topics"`
	Percent            int           `json:"percent"`
	ReadyForAssessment bool          `json:"ready_for_assessment"`
}

func toProgressDTO(p *service.Progress) progressDTO {
	return progressDTO{
		Enrollment:         toEnrollmentDTO(p.Enrollment),
		TotalTopics:        p.TotalTopics,
		CompletedTopics:    p.CompletedTopics,
		Percent:            p.Percent,
		ReadyForAssessment: p.ReadyForAssessment,
	}
}

// writeError maps service errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	if me, ok := service.IsModerationError(err); ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": me.Reason})
		return
	}

	switch {
	case errors.Is(err, service.ErrCourseNotFound),
		errors.Is(err, service.ErrJobNotFound),
		errors.Is(err, service.ErrEnrollmentNotFound),
		errors.Is(err, service.ErrContentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrTopicRequired),
		errors.Is(err, service.ErrInvalidDepth),
		errors.Is(err, service.ErrTopicOutOfRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSyllabusNotReady),
		errors.Is(err, service.ErrSyllabusActive),
		errors.Is(err, service.ErrAlreadyEnrolled):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// topicParams parses the :m and :t path parameters.
func topicParams(c *gin.Context) (int, int, bool) {
	m, err := strconv.Atoi(c.Param("m"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid module index"})
		return 0, 0, false
	}
	t, err := strconv.Atoi(c.Param("t"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid topic index"})
		return 0, 0, false
	}
	return m, t, true
}

func (s *Server) createCourse(c *gin.Context) {
	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, job, err := s.courses.CreateCourse(c.Request.Context(), req.Topic, req.Context, req.Depth, req.OwnerID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"course": toCourseDTO(cfg),
		"job":    toJobDTO(job),
	})
}

func (s *Server) getCourse(c *gin.Context) {
	cfg, err := s.courses.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCourseDTO(cfg))
}

func (s *Server) getSyllabus(c *gin.Context) {
	syl, err := s.courses.GetSyllabus(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSyllabusDTO(syl))
}

func (s *Server) syllabusStatus(c *gin.Context) {
	state, err := s.courses.SyllabusStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := gin.H{"status": string(state.Syllabus.Status)}
	if state.Syllabus.Error != nil {
		resp["error"] = *state.Syllabus.Error
	}
	if state.Job != nil {
		resp["job"] = toJobDTO(state.Job)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) requestSyllabusGeneration(c *gin.Context) {
	job, err := s.courses.RequestSyllabusGeneration(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, toJobDTO(job))
}

func (s *Server) requestTopicContent(c *gin.Context) {
	m, t, ok := topicParams(c)
	if !ok {
		return
	}

	job, err := s.courses.RequestTopicContent(c.Request.Context(), c.Param("id"), m, t)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, toJobDTO(job))
}

func (s *Server) getTopicContent(c *gin.Context) {
	m, t, ok := topicParams(c)
	if !ok {
		return
	}

	text, err := s.courses.GetTopicContent(c.Request.Context(), c.Param("id"), m, t)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": text})
}

func (s *Server) topicContentStatus(c *gin.Context) {
	m, t, ok := topicParams(c)
	if !ok {
		return
	}

	state, err := s.courses.TopicContentStatus(c.Request.Context(), c.Param("id"), m, t)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := gin.H{"has_content": state.HasContent}
	if state.Job != nil {
		resp["job"] = toJobDTO(state.Job)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listJobs(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	var (
		jobs []models.GenerationJob
		err  error
	)
	if c.Query("active") == "true" {
		jobs, err = s.courses.ListActiveJobs(c.Request.Context())
	} else {
		jobs, err = s.courses.ListJobs(c.Request.Context(), limit)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]jobDTO, 0, len(jobs))
	for i := range jobs {
		out = append(out, toJobDTO(&jobs[i]))
	}
	c.JSON(http.StatusOK, gin.H{"jobs": out})
}

func (s *Server) getJob(c *gin.Context) {
	job, err := s.courses.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toJobDTO(job))
}

func (s *Server) enroll(c *gin.Context) {
	var req enrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	e, err := s.progress.Enroll(c.Request.Context(), req.UserID, req.CourseID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toEnrollmentDTO(e))
}

func (s *Server) getProgress(c *gin.Context) {
	p, err := s.progress.GetProgress(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProgressDTO(p))
}

func (s *Server) advanceModule(c *gin.Context) {
	var req advanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	e, err := s.progress.AdvanceModule(c.Request.Context(), c.Param("id"), req.ModuleIndex)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toEnrollmentDTO(e))
}

func (s *Server) markTopicComplete(c *gin.Context) {
	var req completeTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := s.progress.MarkTopicComplete(c.Request.Context(), c.Param("id"), req.ModuleIndex, req.TopicIndex)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProgressDTO(p))
}
