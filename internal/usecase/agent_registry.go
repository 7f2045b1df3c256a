package usecase

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"conversation-agent/internal/config"
	"conversation-agent/internal/domain"
	"conversation-agent/internal/domain/model"
	"conversation-agent/internal/infra/logging"
	"conversation-agent/internal/infra/metrics"
)

// AgentFactory builds a fresh session for the given settings.
type AgentFactory func(settings model.Settings) (ConversationUseCase, error)

// AgentInfo is the public description of a configured assistant.
type AgentInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Model    string `json:"model"`
	Provider string `json:"provider"`
}

type agentEntry struct {
	cfg config.EntryConfig
	uc  ConversationUseCase
}

// AgentRegistry owns one independent session per config entry.
type AgentRegistry struct {
	mu      sync.RWMutex
	agents  map[string]*agentEntry
	factory AgentFactory
	log     *zerolog.Logger
}

func NewAgentRegistry(factory AgentFactory, logger *zerolog.Logger) *AgentRegistry {
	if logger == nil {
		logger = logging.Nop()
	}
	l := logger.With().Str("component", "AgentRegistry").Logger()
	return &AgentRegistry{agents: make(map[string]*agentEntry), factory: factory, log: &l}
}

// Setup creates the session of a new entry.
func (r *AgentRegistry) Setup(entry config.EntryConfig) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	uc, err := r.factory(entry.Settings())
	if err != nil {
		return fmt.Errorf("setup entry %s: %w", entry.ID, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.agents[entry.ID]; ok {
		return domain.ErrAlreadyExists
	}
	r.agents[entry.ID] = &agentEntry{cfg: entry, uc: uc}
	r.log.Info().Str("entry_id", entry.ID).Str("model", entry.Model).Msg("conversation agent set up")
	return nil
}

// Unload drops the session and its history.
func (r *AgentRegistry) Unload(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.uc.Reset()
	delete(r.agents, id)
	r.log.Info().Str("entry_id", id).Msg("conversation agent unloaded")
	return nil
}

func (r *AgentRegistry) Get(id string) (ConversationUseCase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a.uc, nil
}

// List returns the configured assistants ordered by id.
func (r *AgentRegistry) List() []AgentInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]AgentInfo, 0, len(r.agents))
	for _, a := range r.agents {
		s := a.uc.Settings()
		out = append(out, AgentInfo{ID: a.cfg.ID, Name: s.Name, Model: s.Model, Provider: s.Provider})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UpdateOptions merges the set fields of opts into the entry options and
// reloads the session, discarding its history.
func (r *AgentRegistry) UpdateOptions(id string, opts config.EntryOptions) (AgentInfo, error) {
	if err := opts.Validate(); err != nil {
		return AgentInfo{}, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[id]
	if !ok {
		return AgentInfo{}, domain.ErrNotFound
	}
	cfg := a.cfg
	if opts.SystemPrompt != nil {
		cfg.Options.SystemPrompt = opts.SystemPrompt
	}
	if opts.MaxTokens != nil {
		cfg.Options.MaxTokens = opts.MaxTokens
	}
	if opts.Temperature != nil {
		cfg.Options.Temperature = opts.Temperature
	}
	if err := r.reloadLocked(a, cfg); err != nil {
		return AgentInfo{}, err
	}
	s := a.uc.Settings()
	return AgentInfo{ID: id, Name: s.Name, Model: s.Model, Provider: s.Provider}, nil
}

// Reload applies a freshly loaded entry list: unchanged entries keep their
// session, changed ones are reloaded, missing ones unloaded, new ones set up.
func (r *AgentRegistry) Reload(entries []config.EntryConfig) error {
	wanted := make(map[string]config.EntryConfig, len(entries))
	for _, e := range entries {
		wanted[e.ID] = e
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// build every new or changed session first; any failure leaves the
	// registry untouched
	built := make(map[string]ConversationUseCase)
	for id, e := range wanted {
		if a, ok := r.agents[id]; ok && reflect.DeepEqual(e, a.cfg) {
			continue
		}
		if err := e.Validate(); err != nil {
			return fmt.Errorf("entry %s: %w: %v", id, domain.ErrInvalidArgument, err)
		}
		uc, err := r.factory(e.Settings())
		if err != nil {
			return fmt.Errorf("setup entry %s: %w", id, err)
		}
		built[id] = uc
	}

	for id, a := range r.agents {
		if _, ok := wanted[id]; !ok {
			a.uc.Reset()
			delete(r.agents, id)
			r.log.Info().Str("entry_id", id).Msg("conversation agent removed on reload")
		}
	}
	for id, uc := range built {
		e := wanted[id]
		if a, ok := r.agents[id]; ok {
			r.swapLocked(a, e, uc)
			continue
		}
		r.agents[id] = &agentEntry{cfg: e, uc: uc}
		r.log.Info().Str("entry_id", id).Msg("conversation agent added on reload")
	}
	return nil
}

// PruneIdle sweeps every session; it satisfies scheduler.Pruner.
func (r *AgentRegistry) PruneIdle(maxIdle time.Duration) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, a := range r.agents {
		n += a.uc.PruneIdle(maxIdle)
	}
	return n
}

func (r *AgentRegistry) reloadLocked(a *agentEntry, cfg config.EntryConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	uc, err := r.factory(cfg.Settings())
	if err != nil {
		return fmt.Errorf("reload entry %s: %w", cfg.ID, err)
	}
	r.swapLocked(a, cfg, uc)
	return nil
}

func (r *AgentRegistry) swapLocked(a *agentEntry, cfg config.EntryConfig, uc ConversationUseCase) {
	a.uc.Reset()
	a.cfg, a.uc = cfg, uc
	metrics.IncHistoryReset(cfg.ID)
	r.log.Info().Str("entry_id", cfg.ID).Msg("conversation agent reloaded, history discarded")
}
