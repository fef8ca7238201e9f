package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/entrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/entrydesk-backend/pkg/enums"
	"github.com/angelmondragon/entrydesk-backend/pkg/outbox/payloads"
)

// build maps a decoded entry event onto the notification it produces.
func build(eventType enums.OutboxEventType, payload any, now time.Time) (*models.Notification, error) {
	switch p := payload.(type) {
	case *payloads.EntrySubmittedEvent:
		return adminNotification(p.EntryID, enums.NotificationTypeEntrySubmitted,
			"Entry submitted for review",
			fmt.Sprintf("An entry of %s dated %s is waiting for review.", p.Amount.StringFixed(2), p.EntryDate),
			now)
	case *payloads.EntryDecidedEvent:
		return decidedNotification(eventType, p, now)
	case *payloads.EntryReviewOverdueEvent:
		return adminNotification(p.EntryID, enums.NotificationTypeEntryReviewOverdue,
			"Entry review overdue",
			fmt.Sprintf("An entry submitted on %s has been pending for %s.", p.SubmittedAt.UTC().Format("2006-01-02"), p.PendingFor),
			now)
	default:
		return nil, fmt.Errorf("unsupported payload %T for %s", payload, eventType)
	}
}

func decidedNotification(eventType enums.OutboxEventType, p *payloads.EntryDecidedEvent, now time.Time) (*models.Notification, error) {
	if p.OwnerID == uuid.Nil {
		return nil, fmt.Errorf("owner id missing")
	}
	amount := p.Amount.StringFixed(2)

	var (
		kind    enums.NotificationType
		title   string
		message string
	)
	switch eventType {
	case enums.EventEntryApproved:
		kind = enums.NotificationTypeEntryApproved
		title = "Entry approved"
		message = fmt.Sprintf("Your entry of %s dated %s was approved.", amount, p.EntryDate)
	case enums.EventEntryRejected:
		kind = enums.NotificationTypeEntryRejected
		title = "Entry rejected"
		message = fmt.Sprintf("Your entry of %s dated %s was rejected.", amount, p.EntryDate)
		if p.RejectionReason != nil && strings.TrimSpace(*p.RejectionReason) != "" {
			message = fmt.Sprintf("%s Reason: %s", message, strings.TrimSpace(*p.RejectionReason))
		}
	default:
		return nil, fmt.Errorf("unexpected decision event %s", eventType)
	}

	owner := p.OwnerID
	entryID := p.EntryID
	return &models.Notification{
		ID:        uuid.New(),
		Audience:  enums.NotificationAudienceUser,
		UserID:    &owner,
		EntryID:   &entryID,
		Type:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: now,
	}, nil
}

func adminNotification(entryID uuid.UUID, kind enums.NotificationType, title, message string, now time.Time) (*models.Notification, error) {
	if entryID == uuid.Nil {
		return nil, fmt.Errorf("entry id missing")
	}
	id := entryID
	return &models.Notification{
		ID:        uuid.New(),
		Audience:  enums.NotificationAudienceAdmin,
		EntryID:   &id,
		Type:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: now,
	}, nil
}
