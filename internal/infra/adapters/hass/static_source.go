package hass

import (
	"context"

	"conversation-agent/internal/domain/model"
	"conversation-agent/internal/domain/ports/adapter"
)

var _ adapter.StateSource = (*StaticSource)(nil)

// StaticSource serves a fixed snapshot; used when no host API is configured.
type StaticSource struct {
	states []model.EntityState
}

// NewStaticSource builds a snapshot from entity id -> state pairs.
func NewStaticSource(states map[string]string) *StaticSource {
	s := &StaticSource{states: make([]model.EntityState, 0, len(states))}
	for id, st := range states {
		s.states = append(s.states, model.EntityState{EntityID: id, Domain: model.DomainOf(id), State: st})
	}
	return s
}

func (s *StaticSource) States(context.Context) ([]model.EntityState, error) {
	out := make([]model.EntityState, len(s.states))
	copy(out, s.states)
	return out, nil
}
