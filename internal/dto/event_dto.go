package dto

import "time"

// DomainEvent is streamed to connected staff clients of an organization.
type DomainEvent struct {
	ID             string                 `json:"id"`
	Type           string                 `json:"type"`
	OrganizationID uint                   `json:"organization_id"`
	ActorID        uint                   `json:"actor_id"`
	EntityID       uint                   `json:"entity_id"`
	Payload        map[string]interface{} `json:"payload,omitempty"`
	CorrelationID  string                 `json:"correlation_id,omitempty"`
	OccurredAt     time.Time              `json:"occurred_at"`
}
