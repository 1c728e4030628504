package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// JobEvent is one message from the server's job watch stream.
type JobEvent struct {
	Type string `json:"type"`
	Job  Job    `json:"job"`
}

// SubscribeJobs opens the websocket push channel and delivers job
// events to onEvent until ctx is cancelled or the connection drops.
// Callers who need guaranteed delivery should pair this with the
// polling Watcher; the stream is best-effort.
func (c *Client) SubscribeJobs(ctx context.Context, onEvent func(JobEvent)) error {
	wsURL := strings.Replace(c.baseURL, "http://", "ws://", 1)
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)
	wsURL += "/api/v1/jobs/watch"

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}
	defer conn.Close()

	// Unblock ReadMessage when the caller cancels.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("websocket read: %w", err)
		}

		var event JobEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			continue
		}
		onEvent(event)
	}
}
