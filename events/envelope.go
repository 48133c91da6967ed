package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

/************************************************
/**** MARK: EVENT TYPES ****/
/************************************************/
const EVENT_CONVERSATION_ASSIGNED = "conversation.assigned.v1"
const EVENT_CONVERSATION_TRANSFERRED = "conversation.transferred.v1"
const EVENT_CONVERSATION_CLOSED = "conversation.closed.v1"
const EVENT_CONVERSATION_REOPENED = "conversation.reopened.v1"
const EVENT_CONVERSATION_WAITING = "conversation.waiting.v1"
const EVENT_CONVERSATION_RESUMED = "conversation.resumed.v1"
const EVENT_CONVERSATION_ARCHIVED = "conversation.archived.v1"
const EVENT_CONVERSATION_UNARCHIVED = "conversation.unarchived.v1"
const EVENT_CONVERSATION_UPDATED = "conversation.updated.v1"
const EVENT_INSTANCE_SYNCED = "instance.synced.v1"

type Meta struct {
	// Trace / request correlation ID
	CorrelationID *string `json:"correlation_id,omitempty"`
	// Unique event ID
	ID string `json:"id"`
	// Emitting service
	Producer *string `json:"producer,omitempty"`
	// Timestamp when the event was emitted
	Time time.Time `json:"time"`
	// Event name and version, e.g. conversation.assigned.v1
	Type string `json:"type"`
	// Tenant the event belongs to; subscribers fan out per organization
	OrganizationID int64 `json:"organization_id"`
}

type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

// New builds an envelope with a fresh id and the current time.
func New(eventType string, orgID int64, data any) Envelope {
	return Envelope{
		Meta: Meta{
			ID:             uuid.NewString(),
			Time:           time.Now().UTC(),
			Type:           eventType,
			OrganizationID: orgID,
		},
		Data: data,
	}
}

// WithCorrelation returns a copy carrying the given correlation id. Empty ids are ignored.
func (e Envelope) WithCorrelation(id string) Envelope {
	if id != "" {
		e.Meta.CorrelationID = &id
	}
	return e
}

type correlationKey struct{}

// ContextWithCorrelation guarda o id da requisição para os eventos emitidos dentro dela.
func ContextWithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

func CorrelationFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// NewFromContext is New plus the correlation id carried by ctx, if any.
func NewFromContext(ctx context.Context, eventType string, orgID int64, data any) Envelope {
	return New(eventType, orgID, data).WithCorrelation(CorrelationFromContext(ctx))
}
