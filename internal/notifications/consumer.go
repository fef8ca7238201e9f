package notifications

import (
	"context"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/entrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/entrydesk-backend/pkg/enums"
	"github.com/angelmondragon/entrydesk-backend/pkg/logger"
	"github.com/angelmondragon/entrydesk-backend/pkg/outbox"
	"github.com/angelmondragon/entrydesk-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/entrydesk-backend/pkg/outbox/registry"
)

const entryNotificationConsumer = "entry-notifications"

type creator interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

// Consumer turns entry lifecycle events into in-app notifications.
type Consumer struct {
	repo         creator
	subscription receiver
	decoders     *registry.DecoderRegistry
	idempotency  *idempotency.Manager
	logg         *logger.Logger
	now          func() time.Time
}

// NewConsumer builds an entry notification consumer.
func NewConsumer(repo creator, subscription receiver, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("entry subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		decoders:     registry.NewEntryDecoders(),
		idempotency:  manager,
		logg:         logg,
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

// process acks anything that can never succeed and nacks transient failures.
func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if !c.decoders.Handles(eventType) {
		c.logg.Info(logCtx, "skipping unhandled event")
		return processResult{ack: true}
	}

	envelope, err := outbox.DecodeEnvelope(msg.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}
	eventID := envelope.EventUUID()
	if eventID == uuid.Nil {
		c.logg.Warn(logCtx, "event id missing")
		return processResult{ack: true}
	}
	logCtx = c.logg.WithField(logCtx, "event_id", eventID.String())

	payload, err := c.decoders.Decode(eventType, envelope.Version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true}
	}
	notification, err := build(eventType, payload, c.now())
	if err != nil {
		c.logg.Error(logCtx, "event cannot produce a notification", err)
		return processResult{ack: true}
	}

	duplicate, err := c.idempotency.Run(ctx, entryNotificationConsumer, eventID, func(ctx context.Context) error {
		return c.repo.Create(ctx, notification)
	})
	if err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		return processResult{nack: true}
	}
	if duplicate {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"notification_id": notification.ID.String(),
		"audience":        notification.Audience,
	})
	c.logg.Info(logCtx, "notification created")
	return processResult{ack: true}
}
