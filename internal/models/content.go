package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// ContentType discriminates expanded-content payloads. Only text is
// produced today; the discriminator exists so other kinds can be added
// without a schema change.
type ContentType string

const (
	ContentTypeText ContentType = "text"
)

// ContentItem is the expanded content generated for a single topic,
// separate from the seed content embedded in the syllabus.
//
// Payload is canonically a map with a "content" key. Older records wrote
// the payload as a bare string; use ContentText to read either form.
type ContentItem struct {
	ID          surrealmodels.RecordID `json:"id"`
	CourseID    string                 `json:"course_id"`
	ModuleIndex int                    `json:"module_index"`
	TopicIndex  int                    `json:"topic_index"`
	ContentType ContentType            `json:"content_type"`
	Payload     any                    `json:"payload"`
	Created     time.Time              `json:"created"`
}

// TextPayload builds the canonical payload for text content.
func TextPayload(content string) map[string]any {
	return map[string]any{"content": content}
}

// ContentText extracts the text from a content payload. It unwraps one
// level of {"content": ...} nesting and falls back to the raw value when
// the payload is a legacy bare string. Returns "" for anything else.
func ContentText(payload any) string {
	switch v := payload.(type) {
	case string:
		return v
	case map[string]any:
		if inner, ok := v["content"]; ok {
			if s, ok := inner.(string); ok {
				return s
			}
		}
	}
	return ""
}

// Text is a convenience accessor for the item's payload.
func (c *ContentItem) Text() string {
	return ContentText(c.Payload)
}
