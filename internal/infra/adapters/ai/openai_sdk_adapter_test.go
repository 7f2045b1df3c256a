//go:build !integration

package ai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"conversation-agent/internal/domain/ports/adapter"
	ai "conversation-agent/internal/infra/adapters/ai"
)

func TestOpenAISDKAdapter_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":" hallo "}}]}`))
	}))
	defer srv.Close()

	a, err := ai.NewOpenAISDKAdapter("sk-test", srv.URL+"/v1")
	if err != nil {
		t.Fatalf("NewOpenAISDKAdapter: %v", err)
	}
	reply, err := a.Complete(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if reply != "hallo" {
		t.Fatalf("reply = %q", reply)
	}
}

func TestOpenAISDKAdapter_HTTPErrorIsRequestKind(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	a, _ := ai.NewOpenAISDKAdapter("sk-test", srv.URL)
	_, err := a.Complete(context.Background(), sampleRequest())
	if got := adapter.KindOf(err); got != adapter.KindRequest {
		t.Fatalf("kind = %q, want request (err=%v)", got, err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestOpenAISDKAdapter_UndecodableBodyIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	a, _ := ai.NewOpenAISDKAdapter("sk-test", srv.URL)
	_, err := a.Complete(context.Background(), sampleRequest())
	if got := adapter.KindOf(err); got != adapter.KindMalformed {
		t.Fatalf("kind = %q, want malformed (err=%v)", got, err)
	}
}

func TestOpenAISDKAdapter_EmptyChoicesIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	a, _ := ai.NewOpenAISDKAdapter("sk-test", srv.URL)
	_, err := a.Complete(context.Background(), sampleRequest())
	if got := adapter.KindOf(err); got != adapter.KindMalformed {
		t.Fatalf("kind = %q, want malformed (err=%v)", got, err)
	}
}

func TestOpenAISDKAdapter_SendsStreamFalse(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Errorf("request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	a, _ := ai.NewOpenAISDKAdapter("sk-test", srv.URL)
	if _, err := a.Complete(context.Background(), sampleRequest()); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	stream, ok := body["stream"]
	if !ok || stream != false {
		t.Fatalf("stream = %v (present=%v), want false", stream, ok)
	}
	if body["max_tokens"] == nil || body["temperature"] == nil {
		t.Fatalf("max_tokens/temperature missing: %v", body)
	}
}
