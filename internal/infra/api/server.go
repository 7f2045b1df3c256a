package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"conversation-agent/internal/config"
	"conversation-agent/internal/domain"
	"conversation-agent/internal/domain/model"
	"conversation-agent/internal/infra/logging"
	"conversation-agent/internal/infra/metrics"
	"conversation-agent/internal/infra/redis"
	"conversation-agent/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Agents is the part of the session registry the API needs.
type Agents interface {
	Get(id string) (usecase.ConversationUseCase, error)
	List() []usecase.AgentInfo
	UpdateOptions(id string, opts config.EntryOptions) (usecase.AgentInfo, error)
}

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type Server struct {
	agents  Agents
	auth    *AuthManager
	limiter Limiter
	logger  *zerolog.Logger
	timeout time.Duration
}

// NewServer wires the HTTP surface. auth and limiter are optional.
func NewServer(agents Agents, auth *AuthManager, limiter Limiter, timeout time.Duration, logger *zerolog.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Server{agents: agents, auth: auth, limiter: limiter, logger: logger, timeout: timeout}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	for _, mw := range []Middleware{TraceID(), RequestLog(s.logger), Recover(s.logger)} {
		r.Use(mw)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/agents", func(r chi.Router) {
		r.Use(RequireJWT(s.auth))
		if s.timeout > 0 {
			r.Use(Timeout(s.timeout))
		}
		r.Get("/", s.listAgents)
		r.Post("/{entryID}/process", s.process)
		r.Put("/{entryID}/options", s.updateOptions)
		r.Get("/{entryID}/history", s.history)
	})
	return r
}

type processRequest struct {
	Text           string `json:"text"`
	UserID         string `json:"user_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	Language       string `json:"language,omitempty"`
}

type processResponse struct {
	Speech         string `json:"speech"`
	ConversationID string `json:"conversation_id"`
	Language       string `json:"language"`
	Failure        string `json:"failure,omitempty"`
}

func (s *Server) process(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryID")
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.UserID == "" {
		req.UserID = Subject(r.Context())
	}

	uc, err := s.agents.Get(entryID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	ctx := logging.WithEntryID(r.Context(), entryID)
	ctx = logging.WithUserID(ctx, req.UserID)
	if !s.allow(ctx, entryID, req.UserID) {
		metrics.IncRateLimited()
		writeDomainError(w, domain.ErrRateLimited)
		return
	}

	res := uc.Process(ctx, usecase.ConversationInput{
		UserID:         req.UserID,
		ConversationID: req.ConversationID,
		Text:           req.Text,
		Language:       req.Language,
	})
	writeJSON(w, http.StatusOK, processResponse{
		Speech:         res.Speech,
		ConversationID: res.ConversationID,
		Language:       res.Language,
		Failure:        res.Failure,
	})
}

// allow fails open when the limiter backend is unreachable.
func (s *Server) allow(ctx context.Context, entryID, userID string) bool {
	if s.limiter == nil {
		return true
	}
	if userID == "" {
		userID = usecase.DefaultUserID
	}
	ok, err := s.limiter.Allow(ctx, redis.UtteranceKey(entryID, userID))
	if err != nil {
		logging.With(ctx, s.logger).Warn().Err(err).Msg("rate limiter unavailable")
		return true
	}
	return ok
}

func (s *Server) listAgents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"agents": s.agents.List()})
}

func (s *Server) updateOptions(w http.ResponseWriter, r *http.Request) {
	var opts config.EntryOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	info, err := s.agents.UpdateOptions(chi.URLParam(r, "entryID"), opts)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	logging.With(r.Context(), s.logger).Info().Str("entry_id", info.ID).Msg("options updated, session reloaded")
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	uc, err := s.agents.Get(chi.URLParam(r, "entryID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		userID = Subject(r.Context())
	}
	if userID == "" {
		userID = usecase.DefaultUserID
	}
	turns := uc.History(userID)
	if turns == nil {
		turns = []model.Turn{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": userID, "turns": turns})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "agent not found")
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
