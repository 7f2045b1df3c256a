package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"conversation-agent/internal/domain/model"
	"conversation-agent/internal/domain/ports/adapter"
	"conversation-agent/internal/infra/i18n"
	"conversation-agent/internal/infra/logging"
	"conversation-agent/internal/infra/metrics"
)

// summaryCategories is the fixed report order; each has a context_<domain> label.
var summaryCategories = []string{
	"light", "switch", "sensor", "binary_sensor", "climate", "cover", "media_player",
	"camera", "scene", "automation", "script", "person", "zone",
}

// ContextSummarizer renders the live home state for the system prompt.
type ContextSummarizer interface {
	// Summarize never fails; on error it returns the localized fallback line.
	Summarize(ctx context.Context, tr *i18n.Translator) string
}

var _ ContextSummarizer = (*contextSummarizer)(nil)

type contextSummarizer struct {
	states adapter.StateSource
	log    *zerolog.Logger
}

func NewContextSummarizer(states adapter.StateSource, logger *zerolog.Logger) ContextSummarizer {
	if logger == nil {
		logger = logging.Nop()
	}
	return &contextSummarizer{states: states, log: logger}
}

func (c *contextSummarizer) Summarize(ctx context.Context, tr *i18n.Translator) (out string) {
	defer func() {
		if rec := recover(); rec != nil {
			c.fail(ctx, fmt.Errorf("panic: %v", rec))
			out = tr.T("context_unavailable")
		}
	}()
	if c.states == nil {
		c.fail(ctx, errors.New("no state source"))
		return tr.T("context_unavailable")
	}
	states, err := c.states.States(ctx)
	if err != nil {
		c.fail(ctx, err)
		return tr.T("context_unavailable")
	}
	return RenderContextSnapshot(model.NewContextSnapshot(states), tr)
}

func (c *contextSummarizer) fail(ctx context.Context, err error) {
	metrics.IncContextSummaryFailure()
	logging.With(ctx, c.log).Error().Err(err).Msg("error getting home state context")
}

// RenderContextSnapshot lists every category, absent ones as zero, then the total.
func RenderContextSnapshot(s model.ContextSnapshot, tr *i18n.Translator) string {
	lines := make([]string, 0, len(summaryCategories)+3)
	lines = append(lines, tr.T("context_header"))
	for _, d := range summaryCategories {
		key := "context_" + d
		switch d {
		case "light":
			lines = append(lines, tr.T(key, s.Counts[d], s.LightsOn))
		case "switch":
			lines = append(lines, tr.T(key, s.Counts[d], s.SwitchesOn))
		default:
			lines = append(lines, tr.T(key, s.Counts[d]))
		}
	}
	lines = append(lines, "", tr.T("context_total", s.Total))
	return strings.Join(lines, "\n")
}
