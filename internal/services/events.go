package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/taskflow/apiserver/internal/mq"
	"github.com/taskflow/apiserver/types"
)

const eventsChannel = "taskflow-events"
const publishTimeout = 5 * time.Second

// EventPublisher emits domain events to the configured broker. Publishing
// is best-effort: failures are logged, never surfaced to the caller. A nil
// publisher (broker not configured) is a no-op.
type EventPublisher struct {
	mq *mq.MQ
}

func NewEventPublisher(broker *mq.MQ) *EventPublisher {
	if broker == nil {
		return nil
	}
	return &EventPublisher{mq: broker}
}

// Event is the wire shape published to the events channel.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func (p *EventPublisher) TaskCreated(ctx context.Context, task types.Task) {
	p.publish(ctx, "task.created", task)
}

func (p *EventPublisher) TaskUpdated(ctx context.Context, task types.Task) {
	p.publish(ctx, "task.updated", task)
}

func (p *EventPublisher) ProjectCreated(ctx context.Context, project types.Project) {
	p.publish(ctx, "project.created", project)
}

func (p *EventPublisher) ProjectDeleted(ctx context.Context, projectID string) {
	p.publish(ctx, "project.deleted", map[string]string{"id": projectID})
}

func (p *EventPublisher) UserDeleted(ctx context.Context, userID string) {
	p.publish(ctx, "user.deleted", map[string]string{"id": userID})
}

func (p *EventPublisher) publish(ctx context.Context, eventType string, payload any) {
	if p == nil {
		return
	}

	data, err := json.Marshal(Event{
		Type:       eventType,
		OccurredAt: time.Now(),
		Payload:    payload,
	})
	if err != nil {
		log.Printf("events: marshal %s: %v", eventType, err)
		return
	}

	// Detach from the request context so a completed request does not
	// cancel the publish, but still bound it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if _, err := p.mq.Publish(ctx, eventsChannel, data, map[string]string{"type": eventType}); err != nil {
		log.Printf("events: publish %s: %v", eventType, err)
	}
}
