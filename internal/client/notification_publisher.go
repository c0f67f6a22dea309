package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sgc-erp/be-hr-approvals/internal/natsclient"
	"github.com/sgc-erp/be-hr-approvals/internal/service"
)

// NotificationPublisher publishes approval workflow events to NATS for
// consumption by the platform notification service, which renders and sends
// the actual emails.
//
// Subject convention: <prefix>.<event_type>, e.g. notifications.hr.approval_required
//
// Send returns the publish outcome so the workflow service can record it in
// the notification log; callers treat failures as non-fatal.
type NotificationPublisher struct {
	nats   *natsclient.Client
	prefix string
	log    zerolog.Logger
}

// notificationEvent is the JSON schema published to NATS.
type notificationEvent struct {
	EventType    string                 `json:"event_type"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id"`
	Recipients   []string               `json:"recipients"`
	Level        *int                   `json:"level,omitempty"`
	IsActionable bool                   `json:"is_actionable,omitempty"`
	ActionURL    string                 `json:"action_url,omitempty"`
	Category     string                 `json:"category"`
	Payload      map[string]interface{} `json:"payload,omitempty"`
}

// NewNotificationPublisher creates a publisher backed by the given NATS client.
func NewNotificationPublisher(nats *natsclient.Client, subjectPrefix string, log zerolog.Logger) *NotificationPublisher {
	return &NotificationPublisher{nats: nats, prefix: subjectPrefix, log: log}
}

// Send publishes one approval workflow event.
func (p *NotificationPublisher) Send(ctx context.Context, n *service.OutboundNotification) error {
	if p.nats == nil {
		return fmt.Errorf("notification publisher not connected")
	}
	if n.Recipient == "" {
		return fmt.Errorf("notification has no recipient")
	}

	event := &notificationEvent{
		EventType:    n.EventType,
		ResourceType: "candidate_approval",
		ResourceID:   n.WorkflowID,
		Recipients:   []string{n.Recipient},
		Level:        n.LevelNumber,
		IsActionable: n.ActionURL != "",
		ActionURL:    n.ActionURL,
		Category:     "hr_approval",
		Payload:      n.Payload,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notification event: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", p.prefix, n.EventType)
	if err := p.nats.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	p.log.Debug().
		Str("subject", subject).
		Str("workflow_id", n.WorkflowID).
		Str("recipient", n.Recipient).
		Msg("notification: event published")
	return nil
}
