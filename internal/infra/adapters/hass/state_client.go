package hass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"conversation-agent/internal/domain/model"
	"conversation-agent/internal/domain/ports/adapter"
)

var _ adapter.StateSource = (*StateClient)(nil)

// StateClient reads entity states from the Home Assistant REST API
// (GET {base}/api/states, Authorization: Bearer <long-lived token>).
type StateClient struct {
	base   string
	token  string
	client *http.Client
}

func NewStateClient(base, token string) (*StateClient, error) {
	if strings.TrimSpace(base) == "" {
		return nil, errors.New("hass base url empty")
	}
	return &StateClient{
		base:   strings.TrimRight(base, "/"),
		token:  token,
		client: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

type stateDTO struct {
	EntityID string `json:"entity_id"`
	State    string `json:"state"`
}

func (c *StateClient) States(ctx context.Context) ([]model.EntityState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/states", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hass states: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("hass states http %d", resp.StatusCode)
	}

	var dtos []stateDTO
	if err := json.NewDecoder(resp.Body).Decode(&dtos); err != nil {
		return nil, fmt.Errorf("decode states: %w", err)
	}
	out := make([]model.EntityState, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, model.EntityState{
			EntityID: d.EntityID,
			Domain:   model.DomainOf(d.EntityID),
			State:    d.State,
		})
	}
	return out, nil
}
