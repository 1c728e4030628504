// Package client provides the HTTP client for the Courseforge server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Client talks to the Courseforge REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client. If baseURL is empty, COURSEFORGE_SERVER_URL is
// used, then localhost. Timeout can be configured via
// COURSEFORGE_CLIENT_TIMEOUT (default 2m; generation itself is async,
// so individual calls stay short).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("COURSEFORGE_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8585"
	}

	timeout := 2 * time.Minute
	if t := os.Getenv("COURSEFORGE_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the configured server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Job is the wire form of a generation job.
type Job struct {
	ID        string    `json:"id"`
	Target    string    `json:"target"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	Error     *string   `json:"error,omitempty"`
	ResultRef *string   `json:"result_ref,omitempty"`
	Created   time.Time `json:"created"`
	Updated   time.Time `json:"updated"`
}

// Terminal reports whether the job will not change again.
func (j *Job) Terminal() bool {
	return j.Status == "completed" || j.Status == "failed"
}

// Course is the wire form of a course configuration.
type Course struct {
	ID      string    `json:"id"`
	Topic   string    `json:"topic"`
	Context string    `json:"context,omitempty"`
	Depth   int       `json:"depth"`
	OwnerID string    `json:"owner_id,omitempty"`
	Created time.Time `json:"created"`
}

// Topic mirrors one syllabus topic.
type Topic struct {
	Summary     string   `json:"summary"`
	Keywords    []string `json:"keywords"`
	SeedContent string   `json:"seed_content"`
}

// Module mirrors one syllabus module.
type Module struct {
	Summary string  `json:"summary"`
	Topics  []Topic `json:"topics"`
}

// Syllabus is the wire form of a course syllabus.
type Syllabus struct {
	CourseID string    `json:"course_id"`
	Status   string    `json:"status"`
	Modules  []Module  `json:"modules,omitempty"`
	Keywords []string  `json:"keywords,omitempty"`
	Error    *string   `json:"error,omitempty"`
	Updated  time.Time `json:"updated"`
}

// SyllabusStatus pairs the syllabus state with its latest job.
type SyllabusStatus struct {
	Status string  `json:"status"`
	Error  *string `json:"error,omitempty"`
	Job    *Job    `json:"job,omitempty"`
}

// TopicStatus reports whether content exists and the latest job for it.
type TopicStatus struct {
	HasContent bool `json:"has_content"`
	Job        *Job `json:"job,omitempty"`
}

// TopicRef addresses one topic within a course.
type TopicRef struct {
	Module int `json:"module"`
	Topic  int `json:"topic"`
}

// Enrollment is the wire form of an enrollment.
type Enrollment struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	CourseID           string     `json:"course_id"`
	CurrentModuleIndex int        `json:"current_module_index"`
	CompletedTopics    []TopicRef `json:"completed_topics"`
	Completed          bool       `json:"completed"`
	EnrolledAt         time.Time  `json:"enrolled_at"`
}

// Progress is the derived progress view for an enrollment.
type Progress struct {
	Enrollment         Enrollment `json:"enrollment"`
	TotalTopics        int        `json:"total_topics"`
	CompletedTopics    int        `json:"completed_topics"`
	Percent            int        `json:"percent"`
	ReadyForAssessment bool       `json:"ready_for_assessment"`
}

// CreateCourseResult is the response to course creation.
type CreateCourseResult struct {
	Course Course `json:"course"`
	Job    Job    `json:"job"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// do issues a JSON request and decodes the response into out (when
// non-nil). Non-2xx responses become *APIError with the server's
// error message.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := resp.Status
		var errBody struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &errBody) == nil && errBody.Error != "" {
			msg = errBody.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// CreateCourse submits a new course request and returns the created
// course with its syllabus generation job.
func (c *Client) CreateCourse(ctx context.Context, topic, courseContext string, depth int, ownerID string) (*CreateCourseResult, error) {
	req := map[string]any{
		"topic":    topic,
		"context":  courseContext,
		"depth":    depth,
		"owner_id": ownerID,
	}
	var out CreateCourseResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/courses", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCourse fetches a course configuration.
func (c *Client) GetCourse(ctx context.Context, courseID string) (*Course, error) {
	var out Course
	if err := c.do(ctx, http.MethodGet, "/api/v1/courses/"+courseID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSyllabus fetches the syllabus in whatever state it is in.
func (c *Client) GetSyllabus(ctx context.Context, courseID string) (*Syllabus, error) {
	var out Syllabus
	if err := c.do(ctx, http.MethodGet, "/api/v1/courses/"+courseID+"/syllabus", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSyllabusStatus fetches the syllabus state and its latest job.
func (c *Client) GetSyllabusStatus(ctx context.Context, courseID string) (*SyllabusStatus, error) {
	var out SyllabusStatus
	if err := c.do(ctx, http.MethodGet, "/api/v1/courses/"+courseID+"/syllabus/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestSyllabusGeneration enqueues (or returns the existing) syllabus
// generation job.
func (c *Client) RequestSyllabusGeneration(ctx context.Context, courseID string) (*Job, error) {
	var out Job
	if err := c.do(ctx, http.MethodPost, "/api/v1/courses/"+courseID+"/syllabus/generate", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func topicPath(courseID string, moduleIndex, topicIndex int) string {
	return fmt.Sprintf("/api/v1/courses/%s/modules/%d/topics/%d", courseID, moduleIndex, topicIndex)
}

// RequestTopicContent enqueues (or returns the existing) content
// generation job for one topic.
func (c *Client) RequestTopicContent(ctx context.Context, courseID string, moduleIndex, topicIndex int) (*Job, error) {
	var out Job
	if err := c.do(ctx, http.MethodPost, topicPath(courseID, moduleIndex, topicIndex)+"/content", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTopicContent fetches the expanded text for one topic.
func (c *Client) GetTopicContent(ctx context.Context, courseID string, moduleIndex, topicIndex int) (string, error) {
	var out struct {
		Content string `json:"content"`
	}
	if err := c.do(ctx, http.MethodGet, topicPath(courseID, moduleIndex, topicIndex)+"/content", nil, &out); err != nil {
		return "", err
	}
	return out.Content, nil
}

// GetTopicStatus reports whether content exists for a topic.
func (c *Client) GetTopicStatus(ctx context.Context, courseID string, moduleIndex, topicIndex int) (*TopicStatus, error) {
	var out TopicStatus
	if err := c.do(ctx, http.MethodGet, topicPath(courseID, moduleIndex, topicIndex)+"/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetJob fetches one job.
func (c *Client) GetJob(ctx context.Context, jobID string) (*Job, error) {
	var out Job
	if err := c.do(ctx, http.MethodGet, "/api/v1/jobs/"+jobID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListJobs fetches recent jobs, optionally only active ones.
func (c *Client) ListJobs(ctx context.Context, activeOnly bool) ([]Job, error) {
	path := "/api/v1/jobs"
	if activeOnly {
		path += "?active=true"
	}
	var out struct {
		Jobs []Job `json:"jobs"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

// Enroll creates an enrollment for a user in a course.
func (c *Client) Enroll(ctx context.Context, userID, courseID string) (*Enrollment, error) {
	req := map[string]any{"user_id": userID, "course_id": courseID}
	var out Enrollment
	if err := c.do(ctx, http.MethodPost, "/api/v1/enrollments", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProgress fetches the derived progress for an enrollment.
func (c *Client) GetProgress(ctx context.Context, enrollmentID string) (*Progress, error) {
	var out Progress
	if err := c.do(ctx, http.MethodGet, "/api/v1/enrollments/"+enrollmentID+"/progress", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdvanceModule moves the enrollment forward to moduleIndex.
func (c *Client) AdvanceModule(ctx context.Context, enrollmentID string, moduleIndex int) (*Enrollment, error) {
	req := map[string]any{"module_index": moduleIndex}
	var out Enrollment
	if err := c.do(ctx, http.MethodPost, "/api/v1/enrollments/"+enrollmentID+"/advance", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompleteTopic marks one topic completed and returns the new progress.
func (c *Client) CompleteTopic(ctx context.Context, enrollmentID string, moduleIndex, topicIndex int) (*Progress, error) {
	req := map[string]any{"module_index": moduleIndex, "topic_index": topicIndex}
	var out Progress
	if err := c.do(ctx, http.MethodPost, "/api/v1/enrollments/"+enrollmentID+"/topics/complete", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStats fetches the server's operation metrics as raw JSON.
func (c *Client) GetStats(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/v1/stats", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Healthcheck reports whether the server is reachable.
func (c *Client) Healthcheck(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthcheck", nil, nil)
}
