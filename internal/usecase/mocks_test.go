// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"conversation-agent/internal/domain/model"
	"conversation-agent/internal/domain/ports/adapter"
	"conversation-agent/internal/infra/i18n"
)

// fakeAI records every request. reply builds the answer from the request;
// err, when set, is returned instead.
type fakeAI struct {
	mu    sync.Mutex
	reqs  []adapter.CompletionRequest
	reply func(req adapter.CompletionRequest) string
	err   error
	delay time.Duration
	panic bool
}

func (f *fakeAI) Complete(ctx context.Context, req adapter.CompletionRequest) (string, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.panic {
		panic("fake ai exploded")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", &adapter.CompletionError{Kind: adapter.KindTimeout, Err: ctx.Err()}
		}
	}
	if f.err != nil {
		return "", f.err
	}
	if f.reply != nil {
		return f.reply(req), nil
	}
	return "ok", nil
}

func (f *fakeAI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

func (f *fakeAI) last() adapter.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[len(f.reqs)-1]
}

// echoLastUser answers "re: <utterance>".
func echoLastUser(req adapter.CompletionRequest) string {
	return "re: " + req.Messages[len(req.Messages)-1].Content
}

type fakeStates struct {
	states []model.EntityState
	err    error
}

func (f *fakeStates) States(context.Context) ([]model.EntityState, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.states, nil
}

func statesOf(pairs ...string) *fakeStates {
	f := &fakeStates{}
	for i := 0; i+1 < len(pairs); i += 2 {
		f.states = append(f.states, model.EntityState{EntityID: pairs[i], Domain: model.DomainOf(pairs[i]), State: pairs[i+1]})
	}
	return f
}

var errStateBoom = errors.New("state machine unavailable")

func testCatalog(t *testing.T) *i18n.Catalog {
	t.Helper()
	c, err := i18n.NewCatalog(i18n.LocalesFS, "de")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func testSettings() model.Settings {
	return model.Settings{
		EntryID:     "living_room",
		Name:        "AI Assistant",
		Provider:    "openai_compat",
		BaseURL:     "http://llm.local/api",
		APIKey:      "sk-test",
		Model:       "mistral:7b",
		MaxTokens:   300,
		Temperature: 0.7,
	}
}

func newTestUC(t *testing.T, ai *fakeAI, states *fakeStates, runner Runner) *conversationUC {
	t.Helper()
	return NewConversationUseCase(testSettings(), ai, NewContextSummarizer(states, nil), runner, testCatalog(t), nil, nil)
}

func systemContent(req adapter.CompletionRequest) string {
	if len(req.Messages) == 0 || req.Messages[0].Role != "system" {
		return ""
	}
	return req.Messages[0].Content
}

func contains(s, sub string) bool { return strings.Contains(s, sub) }
