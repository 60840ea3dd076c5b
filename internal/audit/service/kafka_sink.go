package service

import (
	"context"
	"fmt"
	"shelfkeeper/pkg/kafka"
	"shelfkeeper/pkg/model"
)

const (
	EventTypePrefix    = "audit."
	AuditSchemaVersion = "1"
	EventSource        = "shelfkeeper"
)

// Publisher is the subset of *kafka.Producer the sink needs.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type kafkaSink struct {
	publisher Publisher
}

// NewKafkaSink publishes entries keyed by table and record, so all events of
// one record land on one partition in order.
func NewKafkaSink(publisher Publisher) Sink {
	return &kafkaSink{publisher: publisher}
}

func (s *kafkaSink) Name() string {
	return "kafka"
}

func (s *kafkaSink) Write(ctx context.Context, entry *model.AuditEntry) error {
	msg, err := NewAuditMessage(entry)
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, msg)
}

func NewAuditMessage(entry *model.AuditEntry) (kafka.Message, error) {
	return kafka.NewMessage().
		WithKey(fmt.Sprintf("%s:%d", entry.Table, entry.RecordID)).
		WithValue(entry).
		WithEventID(entry.ID).
		WithEventType(EventTypePrefix + entry.Action).
		WithActor(entry.Actor).
		WithSchemaVersion(AuditSchemaVersion).
		WithSource(EventSource).
		Build()
}
