package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/raphaelgruber/courseforge/internal/models"
	"github.com/raphaelgruber/courseforge/internal/service"
)

const (
	// hubSweepInterval is how often the hub checks jobs for changes.
	hubSweepInterval = 1 * time.Second

	// hubJobWindow bounds how many recent jobs a sweep inspects.
	hubJobWindow = 200

	writeWait = 10 * time.Second
)

// jobEvent is the message pushed to watch subscribers whenever a job
// changes status.
type jobEvent struct {
	Type string `json:"type"`
	Job  jobDTO `json:"job"`
}

// Hub pushes job status changes to websocket subscribers. It observes
// the store through the service rather than hooking the generators, so
// changes made by any writer are picked up.
type Hub struct {
	courses *service.CourseService
	log     *slog.Logger

	mu         sync.Mutex
	clients    map[*websocket.Conn]struct{}
	lastStatus map[string]models.JobStatus
}

func newHub(courses *service.CourseService, log *slog.Logger) *Hub {
	return &Hub{
		courses:    courses,
		log:        log,
		clients:    make(map[*websocket.Conn]struct{}),
		lastStatus: make(map[string]models.JobStatus),
	}
}

// Run sweeps for job changes until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(hubSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			h.sweep(ctx)
		}
	}
}

func (h *Hub) sweep(ctx context.Context) {
	if !h.hasClients() {
		return
	}

	jobs, err := h.courses.ListJobs(ctx, hubJobWindow)
	if err != nil {
		h.log.Warn("job sweep failed", "error", err)
		return
	}

	h.mu.Lock()
	var changed []jobDTO
	for i := range jobs {
		job := &jobs[i]
		id := models.MustRecordIDString(job.ID)
		if prev, seen := h.lastStatus[id]; !seen || prev != job.Status {
			h.lastStatus[id] = job.Status
			changed = append(changed, toJobDTO(job))
		}
	}
	h.mu.Unlock()

	for _, dto := range changed {
		h.broadcast(jobEvent{Type: "job_update", Job: dto})
	}
}

func (h *Hub) hasClients() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients) > 0
}

func (h *Hub) broadcast(event jobEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(event); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		conn.Close()
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The API has no browser surface; subscribers are the CLI and
		// other first-party clients.
		return true
	},
}

// watchJobs upgrades the connection and streams job status changes.
func (s *Server) watchJobs(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	s.hub.register(conn)

	// Reader loop exists only to observe disconnects; inbound messages
	// are discarded.
	go func() {
		defer s.hub.unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
