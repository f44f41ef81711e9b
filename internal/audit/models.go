// Package audit records applied workflow transitions and fans them out to
// notification consumers. Events are emitted after commit and are strictly
// fire-and-forget: audit delivery never fails or delays a transition.
package audit

import (
	"context"
	"time"

	"caseflow/pkg/domain"
)

// Event is one applied transition, enriched with the request-scoped metadata
// available at emission time.
type Event struct {
	RequestID     domain.RequestID `json:"requestId"`
	FromState     string           `json:"fromState"`
	ToState       string           `json:"toState"`
	ActorID       string           `json:"actorId"`
	Comment       string           `json:"comment,omitempty"`
	CorrelationID string           `json:"correlationId,omitempty"`
	ClientIP      string           `json:"clientIp,omitempty"`
	UserAgent     string           `json:"userAgent,omitempty"`
	SLABand       string           `json:"slaBand,omitempty"`
	OccurredAt    time.Time        `json:"occurredAt"`
}

// Sink receives events. Implementations must not block the caller beyond a
// channel send or an async produce.
type Sink interface {
	Publish(ctx context.Context, event Event)
}

// Store persists events for operator queries.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByRequest(ctx context.Context, requestID domain.RequestID) ([]Event, error)
}
