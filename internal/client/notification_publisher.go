package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/agrifield/be-fs-liquidations/internal/repository"
	"github.com/agrifield/be-fs-liquidations/pkg/natsclient"
)

// NotificationPublisher publishes record lifecycle events to NATS for
// consumption by downstream notification services.
//
// Subject convention: notifications.fs.<event_type>
// Event types: record_approved, record_finalized, record_edited
//
// All publish operations are non-fatal — errors are logged but never
// propagated, so notification failures never interrupt approvals.
type NotificationPublisher struct {
	nats *natsclient.Client
	log  zerolog.Logger
}

// NotificationEvent is the JSON schema published to NATS.
type NotificationEvent struct {
	EventType   string   `json:"event_type"`
	PhoneNumber string   `json:"phone_number"`
	RecordDate  string   `json:"record_date"`
	Status      string   `json:"status"`
	ActorTag    string   `json:"actor_tag"`
	Zone        string   `json:"zone,omitempty"`
	Area        string   `json:"area,omitempty"`
	ApprovedBy  []string `json:"approved_by,omitempty"`
}

// NewNotificationPublisher creates a publisher backed by the given
// NATS client.
func NewNotificationPublisher(nats *natsclient.Client, log zerolog.Logger) *NotificationPublisher {
	return &NotificationPublisher{nats: nats, log: log}
}

// PublishRecordEvent publishes a record event to NATS.
// Subject: notifications.fs.<eventType>
func (p *NotificationPublisher) PublishRecordEvent(ctx context.Context, eventType string, record *repository.Record, actorTag string) {
	if p.nats == nil || record == nil {
		return
	}

	event := &NotificationEvent{
		EventType:   eventType,
		PhoneNumber: record.PhoneNumber,
		RecordDate:  record.RecordDate,
		Status:      string(record.Status),
		ActorTag:    actorTag,
		Zone:        record.Zone,
		Area:        record.Area,
		ApprovedBy:  record.ApprovedTags(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Warn().Err(err).Str("event_type", eventType).Msg("notification: failed to marshal event")
		return
	}

	subject := fmt.Sprintf("notifications.fs.%s", eventType)
	if err := p.nats.Publish(ctx, subject, data); err != nil {
		p.log.Warn().Err(err).
			Str("subject", subject).
			Str("record", record.Key().String()).
			Msg("notification: failed to publish NATS event (non-fatal)")
		return
	}

	p.log.Debug().
		Str("subject", subject).
		Str("record", record.Key().String()).
		Msg("notification: event published")
}
