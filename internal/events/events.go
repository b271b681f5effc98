// Package events publishes library changes to Kafka so the worker can keep
// derived state in step.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/illegalcall/reelwriter/internal/metrics"
)

type Type string

const (
	ScriptGenerated      Type = "script.generated"
	ScriptRemixed        Type = "script.remixed"
	ScriptContentUpdated Type = "script.content_updated"
	ScriptStatusChanged  Type = "script.status_changed"
	ScriptViralChanged   Type = "script.viral_changed"
	ScriptDeleted        Type = "script.deleted"
	ScriptsPurged        Type = "scripts.purged"
)

// ScriptEvent describes one change to a profile's script library.
type ScriptEvent struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	AccountID  string    `json:"account_id"`
	ProfileID  string    `json:"profile_id"`
	ScriptID   string    `json:"script_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New stamps an event with an id and the current time.
func New(t Type, accountID, profileID, scriptID string) ScriptEvent {
	return ScriptEvent{
		ID:         uuid.NewString(),
		Type:       t,
		AccountID:  accountID,
		ProfileID:  profileID,
		ScriptID:   scriptID,
		OccurredAt: time.Now().UTC(),
	}
}

// AffectsExamples reports whether the event can change which scripts the
// example retriever would pick for the profile.
func (e ScriptEvent) AffectsExamples() bool {
	switch e.Type {
	case ScriptContentUpdated, ScriptStatusChanged, ScriptViralChanged, ScriptDeleted, ScriptsPurged:
		return true
	default:
		return false
	}
}

// Publisher sends script events.
type Publisher interface {
	Publish(ctx context.Context, event ScriptEvent) error
}

// KafkaPublisher writes events to a topic keyed by profile id, so the
// events of one profile stay ordered within a partition.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaPublisher(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event ScriptEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.ProfileID),
		Value: sarama.ByteEncoder(data),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), metrics.OutcomeFailure).Inc()
		return fmt.Errorf("failed to publish event: %w", err)
	}

	metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), metrics.OutcomeSuccess).Inc()
	slog.Debug("Event published", "type", event.Type, "profile_id", event.ProfileID, "partition", partition, "offset", offset)
	return nil
}

// Decode parses an event from a Kafka message value.
func Decode(data []byte) (ScriptEvent, error) {
	var e ScriptEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return ScriptEvent{}, fmt.Errorf("failed to parse event: %w", err)
	}
	if e.Type == "" || e.ProfileID == "" {
		return ScriptEvent{}, fmt.Errorf("event is missing type or profile id")
	}
	return e, nil
}
