package adapter

import (
	"context"
	"errors"
	"fmt"

	"conversation-agent/internal/domain/model"
)

// Message represents a chat message on the wire.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// CompletionRequest is one chat-completions call.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// CompletionClient is the port for the remote LLM provider.
type CompletionClient interface {
	// Complete returns the trimmed assistant text. Failures are *CompletionError.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// FailureKind classifies completion failures.
type FailureKind string

const (
	KindTimeout   FailureKind = "timeout"
	KindRequest   FailureKind = "request"   // transport error or non-2xx status
	KindMalformed FailureKind = "malformed" // body without usable choices
)

// CompletionError is returned by every CompletionClient failure.
type CompletionError struct {
	Kind   FailureKind
	Status int // HTTP status for upstream errors, 0 otherwise
	Detail string
	Err    error
}

func (e *CompletionError) Error() string {
	msg := "completion " + string(e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (http %d)", e.Status)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CompletionError) Unwrap() error { return e.Err }

// KindOf reports the failure kind of err, or "" when err is not a CompletionError.
func KindOf(err error) FailureKind {
	var ce *CompletionError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// MessagesFromTurns converts transcript turns to wire messages.
func MessagesFromTurns(turns []model.Turn) []Message {
	out := make([]Message, 0, len(turns))
	for _, t := range turns {
		out = append(out, Message{Role: string(t.Role), Content: t.Content})
	}
	return out
}
