package model

import "strings"

// EntityState is one entry of the host state snapshot.
type EntityState struct {
	EntityID string
	Domain   string
	State    string
}

// DomainOf returns the part of an entity id before the first dot.
func DomainOf(entityID string) string {
	if i := strings.IndexByte(entityID, '.'); i > 0 {
		return entityID[:i]
	}
	return entityID
}
