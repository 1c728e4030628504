package moderation

import (
	"context"
	"log/slog"
)

// genericReason is used when more than one category is flagged, so the
// response never enumerates moderation internals.
const genericReason = "This content doesn't meet our content guidelines."

// categoryReasons maps provider categories to a single user-facing
// explanation. Sub-variants (threatening, graphic, intent...) collapse
// onto their parent category's message.
var categoryReasons = map[string]string{
	"hate":                   "This content may contain hateful material.",
	"hate/threatening":       "This content may contain hateful material.",
	"harassment":             "This content may contain harassing material.",
	"harassment/threatening": "This content may contain harassing material.",
	"self-harm":              "This content may relate to self-harm.",
	"self-harm/intent":       "This content may relate to self-harm.",
	"self-harm/instructions": "This content may relate to self-harm.",
	"sexual":                 "This content may contain sexual material.",
	"sexual/minors":          "This content may contain sexual material.",
	"violence":               "This content may contain violent material.",
	"violence/graphic":       "This content may contain violent material.",
	"illicit":                "This content may relate to illicit activity.",
	"illicit/violent":        "This content may relate to illicit activity.",
}

// Verdict is the gate's answer for a proposed topic/context pair.
type Verdict struct {
	Safe   bool   `json:"safe"`
	Reason string `json:"reason,omitempty"` // set iff not safe
}

// Gate validates proposed course content. It is purely advisory: it
// mutates nothing and the caller decides whether to proceed.
type Gate struct {
	client *Client
	logger *slog.Logger
}

// NewGate creates a moderation gate around a provider client.
func NewGate(client *Client, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{client: client, logger: logger}
}

// Check classifies the topic and context as one evaluation unit, so
// either field alone or their combination can trigger a flag.
//
// When the provider itself is unreachable the gate fails OPEN: content
// is treated as safe and the degradation is logged. Blocking all course
// creation on moderation downtime was judged worse than occasionally
// letting unmoderated content through; revisit deliberately, this is a
// policy decision, not a bug.
func (g *Gate) Check(ctx context.Context, topic, courseContext string) Verdict {
	text := topic + "\n\n" + courseContext

	classification, err := g.client.Classify(ctx, text)
	if err != nil {
		g.logger.Warn("moderation provider unavailable, failing open",
			"error", err)
		return Verdict{Safe: true}
	}

	if !classification.Flagged {
		return Verdict{Safe: true}
	}

	g.logger.Info("content flagged by moderation",
		"categories", len(classification.Categories))
	return Verdict{Safe: false, Reason: reasonFor(classification.Categories)}
}

// reasonFor maps flagged categories to one user-facing reason. Multiple
// flagged categories collapse to a generic message.
func reasonFor(categories []string) string {
	if len(categories) != 1 {
		return genericReason
	}
	if reason, ok := categoryReasons[categories[0]]; ok {
		return reason
	}
	return genericReason
}
