package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"conversation-agent/internal/domain/ports/adapter"
)

// RequestTimeout bounds one chat-completions call.
const RequestTimeout = 30 * time.Second

const maxErrorBody = 512

// Compile-time assurance this adapter satisfies the port
var _ adapter.CompletionClient = (*OpenAICompatAdapter)(nil)

// OpenAICompatAdapter talks to any OpenAI-compatible gateway (OpenAI, Ollama,
// Mistral, LiteLLM, ...). Chat completions path: {base}/chat/completions
// Authorization: Bearer <api key>
type OpenAICompatAdapter struct {
	apiKey string
	base   string // e.g., https://ollama.example.com/api
	client *http.Client
}

func NewOpenAICompatAdapter(apiKey, base string) (*OpenAICompatAdapter, error) {
	if strings.TrimSpace(base) == "" {
		return nil, errors.New("openai-compatible base url empty")
	}
	return &OpenAICompatAdapter{
		apiKey: apiKey,
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: RequestTimeout},
	}, nil
}

// WithHTTPClient swaps the underlying client (tests use shorter timeouts).
func (o *OpenAICompatAdapter) WithHTTPClient(c *http.Client) *OpenAICompatAdapter {
	o.client = c
	return o
}

type chatRequest struct {
	Model       string            `json:"model"`
	Messages    []adapter.Message `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	Temperature float64           `json:"temperature"`
	Stream      bool              `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (o *OpenAICompatAdapter) Complete(ctx context.Context, in adapter.CompletionRequest) (string, error) {
	b, err := json.Marshal(chatRequest{
		Model:       in.Model,
		Messages:    in.Messages,
		MaxTokens:   in.MaxTokens,
		Temperature: in.Temperature,
		Stream:      false,
	})
	if err != nil {
		return "", &adapter.CompletionError{Kind: adapter.KindRequest, Detail: "marshal request", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.base+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", &adapter.CompletionError{Kind: adapter.KindRequest, Detail: "create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &adapter.CompletionError{
			Kind:   adapter.KindRequest,
			Status: resp.StatusCode,
			Detail: strings.TrimSpace(string(excerpt)),
		}
	}

	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if isTimeout(err) {
			return "", &adapter.CompletionError{Kind: adapter.KindTimeout, Err: err}
		}
		return "", &adapter.CompletionError{Kind: adapter.KindMalformed, Detail: "decode body", Err: err}
	}
	if len(payload.Choices) == 0 {
		return "", &adapter.CompletionError{Kind: adapter.KindMalformed, Detail: "no choices in response"}
	}
	content := payload.Choices[0].Message.Content
	if content == nil {
		return "", &adapter.CompletionError{Kind: adapter.KindMalformed, Detail: "first choice has no message content"}
	}
	return strings.TrimSpace(*content), nil
}

func classifyTransport(err error) *adapter.CompletionError {
	if isTimeout(err) {
		return &adapter.CompletionError{Kind: adapter.KindTimeout, Err: err}
	}
	return &adapter.CompletionError{Kind: adapter.KindRequest, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
