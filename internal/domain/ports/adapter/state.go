package adapter

import (
	"context"

	"conversation-agent/internal/domain/model"
)

// StateSource is the read-only view of the host's current entity states.
type StateSource interface {
	States(ctx context.Context) ([]model.EntityState, error)
}
