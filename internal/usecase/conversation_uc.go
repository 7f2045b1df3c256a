package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"conversation-agent/internal/domain/model"
	"conversation-agent/internal/domain/ports/adapter"
	"conversation-agent/internal/infra/i18n"
	"conversation-agent/internal/infra/logging"
	"conversation-agent/internal/infra/metrics"
	"conversation-agent/internal/infra/worker"
)

// DefaultUserID is used when the host does not identify the speaker.
const DefaultUserID = "default"

// failure kinds on top of adapter.FailureKind
const (
	kindInternal = "internal"
	kindInput    = "invalid_input"
)

// Compile-time check
var _ ConversationUseCase = (*conversationUC)(nil)

type ConversationInput struct {
	UserID         string
	ConversationID string
	Text           string
	Language       string
}

type ConversationResult struct {
	Speech         string
	ConversationID string
	Language       string
	Failure        string // empty on success, failure kind otherwise
}

// ConversationUseCase is one configured assistant session.
type ConversationUseCase interface {
	// Process always yields a reply; failures become a localized apology.
	Process(ctx context.Context, in ConversationInput) ConversationResult
	History(userID string) []model.Turn
	Settings() model.Settings
	// Reset discards the in-memory history of all users.
	Reset()
	// PruneIdle forgets users silent for longer than maxIdle.
	PruneIdle(maxIdle time.Duration) int
}

// Runner executes blocking work off the caller's goroutine.
type Runner interface {
	Run(ctx context.Context, task worker.Task) error
}

// TokenCounter estimates prompt size for metrics.
type TokenCounter interface {
	Count(messages []adapter.Message) int
}

type conversationUC struct {
	settings   model.Settings
	history    *model.History
	ai         adapter.CompletionClient
	summarizer ContextSummarizer
	runner     Runner
	catalog    *i18n.Catalog
	tokens     TokenCounter
	log        *zerolog.Logger
	newID      func() string
}

// NewConversationUseCase wires one session. runner and tokens may be nil: the
// completion then runs on the caller's goroutine and no token metric is kept.
func NewConversationUseCase(
	settings model.Settings,
	ai adapter.CompletionClient,
	summarizer ContextSummarizer,
	runner Runner,
	catalog *i18n.Catalog,
	tokens TokenCounter,
	logger *zerolog.Logger,
) *conversationUC {
	if logger == nil {
		logger = logging.Nop()
	}
	l := logger.With().Str("component", "ConversationUC").Str("entry_id", settings.EntryID).Logger()
	return &conversationUC{
		settings:   settings,
		history:    model.NewHistory(),
		ai:         ai,
		summarizer: summarizer,
		runner:     runner,
		catalog:    catalog,
		tokens:     tokens,
		log:        &l,
		newID:      func() string { return ulid.Make().String() },
	}
}

func (c *conversationUC) Settings() model.Settings { return c.settings }

func (c *conversationUC) History(userID string) []model.Turn {
	return c.history.Snapshot(resolveUser(userID))
}

func (c *conversationUC) Reset() { c.history.Clear() }

func (c *conversationUC) PruneIdle(maxIdle time.Duration) int {
	n := c.history.PruneIdle(time.Now().Add(-maxIdle))
	if n > 0 {
		metrics.AddHistoryPruned(c.settings.EntryID, n)
	}
	return n
}

func (c *conversationUC) Process(ctx context.Context, in ConversationInput) (res ConversationResult) {
	tr := c.catalog.For(in.Language)
	userID := resolveUser(in.UserID)
	convID := in.ConversationID
	if strings.TrimSpace(convID) == "" {
		convID = c.newID()
	}
	res = ConversationResult{ConversationID: convID, Language: in.Language}
	if res.Language == "" {
		res.Language = tr.Lang()
	}

	ctx = logging.WithConversationID(logging.WithUserID(ctx, userID), convID)
	l := logging.With(ctx, c.log)
	defer logging.TraceDuration(l, "ConversationUC.Process")()

	defer func() {
		if rec := recover(); rec != nil {
			l.Error().Interface("panic", rec).Msg("unexpected error processing utterance")
			res.Speech, res.Failure = tr.T("apology_processing"), kindInternal
		}
		metrics.IncTurn(c.settings.EntryID, res.Failure == "")
	}()

	// whitespace only decides emptiness; the utterance is sent and kept as given
	text := in.Text
	if strings.TrimSpace(text) == "" {
		l.Warn().Msg("empty utterance")
		res.Speech, res.Failure = tr.T("apology_processing"), kindInput
		return res
	}

	hist := c.history.For(userID)
	if err := hist.Acquire(ctx); err != nil {
		l.Error().Err(err).Msg("gave up waiting for previous utterance of user")
		res.Speech, res.Failure = tr.T("apology_processing"), kindInternal
		return res
	}
	defer hist.Release()

	summary := c.summarizer.Summarize(ctx, tr)
	req := adapter.CompletionRequest{
		Model:       c.settings.Model,
		Messages:    c.buildMessages(tr, summary, hist.Recent(model.PromptHistoryTurns), text),
		MaxTokens:   c.settings.MaxTokens,
		Temperature: c.settings.Temperature,
	}
	if c.tokens != nil {
		metrics.ObservePromptTokens(c.settings.Model, c.tokens.Count(req.Messages))
	}

	start := time.Now()
	reply, err := c.complete(ctx, req)
	latency := time.Since(start)
	if err != nil {
		kind := c.logFailure(l, err, latency)
		metrics.ObserveCompletion(c.settings.Model, kind, latency.Milliseconds())
		metrics.IncCompletionFailure(kind)
		res.Speech, res.Failure = tr.T(apologyKey(kind)), kind
		return res
	}
	metrics.ObserveCompletion(c.settings.Model, "ok", latency.Milliseconds())

	hist.AppendExchange(text, reply)
	l.Debug().Dur("latency", latency).Int("history", hist.Len()).Msg("utterance answered")
	res.Speech = reply
	return res
}

// complete performs the single completion attempt on the runner.
func (c *conversationUC) complete(ctx context.Context, req adapter.CompletionRequest) (string, error) {
	if c.runner == nil {
		return c.ai.Complete(ctx, req)
	}
	type result struct {
		reply string
		err   error
	}
	out := make(chan result, 1)
	err := c.runner.Run(ctx, func(ctx context.Context) error {
		reply, err := c.ai.Complete(ctx, req)
		out <- result{reply, err}
		return err
	})
	if err != nil {
		return "", err
	}
	r := <-out
	return r.reply, r.err
}

// buildMessages: system prompt, up to the last stored turns, then the utterance.
func (c *conversationUC) buildMessages(tr *i18n.Translator, summary string, recent []model.Turn, text string) []adapter.Message {
	msgs := make([]adapter.Message, 0, len(recent)+2)
	msgs = append(msgs, adapter.Message{Role: string(model.RoleSystem), Content: SystemPrompt(tr, summary, c.settings.SystemPrompt)})
	msgs = append(msgs, adapter.MessagesFromTurns(recent)...)
	msgs = append(msgs, adapter.Message{Role: string(model.RoleUser), Content: text})
	return msgs
}

// SystemPrompt is the base instruction with the context summary, followed by
// the configured suffix after a blank line.
func SystemPrompt(tr *i18n.Translator, summary, suffix string) string {
	return strings.TrimSpace(tr.T("base_instruction", summary) + "\n\n" + suffix)
}

func (c *conversationUC) logFailure(l *zerolog.Logger, err error, latency time.Duration) string {
	var ce *adapter.CompletionError
	switch {
	case errors.As(err, &ce):
		ev := l.Error().Err(err).Dur("latency", latency).Str("model", c.settings.Model)
		switch ce.Kind {
		case adapter.KindTimeout:
			ev.Msg("LLM API timeout")
		case adapter.KindMalformed:
			ev.Msg("unexpected LLM API response format")
		default:
			ev.Int("status", ce.Status).Msg("LLM API request error")
		}
		return string(ce.Kind)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		l.Error().Err(err).Dur("latency", latency).Msg("LLM API call abandoned: request context ended")
		return string(adapter.KindTimeout)
	default:
		l.Error().Err(fmt.Errorf("completion: %w", err)).Msg("unexpected error calling LLM API")
		return kindInternal
	}
}

func apologyKey(kind string) string {
	switch adapter.FailureKind(kind) {
	case adapter.KindTimeout:
		return "apology_timeout"
	case adapter.KindRequest:
		return "apology_request"
	case adapter.KindMalformed:
		return "apology_malformed"
	default:
		return "apology_processing"
	}
}

func resolveUser(userID string) string {
	if u := strings.TrimSpace(userID); u != "" {
		return u
	}
	return DefaultUserID
}
