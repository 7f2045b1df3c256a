package ai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"conversation-agent/internal/domain/ports/adapter"
)

var _ adapter.CompletionClient = (*OpenAISDKAdapter)(nil)

// OpenAISDKAdapter implements the completion port with the official SDK.
// Retries are disabled: one attempt per utterance.
type OpenAISDKAdapter struct {
	client openai.Client
}

func NewOpenAISDKAdapter(apiKey, base string, opts ...option.RequestOption) (*OpenAISDKAdapter, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openai api key empty")
	}
	all := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(RequestTimeout),
	}
	if base = strings.TrimSpace(base); base != "" {
		all = append(all, option.WithBaseURL(strings.TrimRight(base, "/")+"/"))
	}
	all = append(all, opts...)
	return &OpenAISDKAdapter{client: openai.NewClient(all...)}, nil
}

func (o *OpenAISDKAdapter) Complete(ctx context.Context, in adapter.CompletionRequest) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(in.Messages))
	for _, m := range in.Messages {
		switch strings.ToLower(m.Role) {
		case "system":
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case "assistant":
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(in.Model),
		Messages:    msgs,
		MaxTokens:   openai.Int(int64(in.MaxTokens)),
		Temperature: openai.Float(in.Temperature),
	}, option.WithJSONSet("stream", false))
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &adapter.CompletionError{Kind: adapter.KindRequest, Status: apiErr.StatusCode, Err: err}
		}
		if isTimeout(err) {
			return "", &adapter.CompletionError{Kind: adapter.KindTimeout, Err: err}
		}
		if isDecodeError(err) {
			return "", &adapter.CompletionError{Kind: adapter.KindMalformed, Detail: "undecodable response body", Err: err}
		}
		return "", &adapter.CompletionError{Kind: adapter.KindRequest, Err: err}
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", &adapter.CompletionError{Kind: adapter.KindMalformed, Detail: "no choices in response"}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// isDecodeError reports a 2xx response whose body the SDK could not parse.
func isDecodeError(err error) bool {
	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	if errors.As(err, &syn) || errors.As(err, &typ) {
		return true
	}
	return strings.Contains(err.Error(), "parsing response json")
}
