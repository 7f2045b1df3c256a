package tokens

import (
	"sync/atomic"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"conversation-agent/internal/domain/ports/adapter"
)

// DefaultEncoding is used for every model; counts only feed metrics.
const DefaultEncoding = "cl100k_base"

// per-message framing overhead of the chat format
const (
	tokensPerMessage = 4
	tokensPerReply   = 3
)

// Estimator counts prompt tokens. Until Warmup succeeds it falls back to a
// rune based estimate, so it never blocks the request path.
type Estimator struct {
	encoding string
	load     func(string) (*tiktoken.Tiktoken, error)
	enc      atomic.Pointer[tiktoken.Tiktoken]
}

func NewEstimator(encoding string) *Estimator {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	return &Estimator{encoding: encoding, load: tiktoken.GetEncoding}
}

// Warmup loads the BPE ranks; it may download them on first use.
func (e *Estimator) Warmup() error {
	enc, err := e.load(e.encoding)
	if err != nil {
		return err
	}
	e.enc.Store(enc)
	return nil
}

// Exact reports whether the tokenizer is loaded.
func (e *Estimator) Exact() bool { return e.enc.Load() != nil }

func (e *Estimator) Count(messages []adapter.Message) int {
	enc := e.enc.Load()
	n := tokensPerReply
	for _, m := range messages {
		n += tokensPerMessage
		if enc != nil {
			n += len(enc.Encode(m.Content, nil, nil))
		} else {
			n += Approximate(m.Content)
		}
	}
	return n
}

// Approximate is roughly one token per four characters, at least one for non-empty text.
func Approximate(s string) int {
	if s == "" {
		return 0
	}
	n := utf8.RuneCountInString(s) / 4
	if n == 0 {
		n = 1
	}
	return n
}
