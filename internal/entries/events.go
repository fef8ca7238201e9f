package entries

import (
	"github.com/angelmondragon/entrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/entrydesk-backend/pkg/enums"
	"github.com/angelmondragon/entrydesk-backend/pkg/outbox"
	"github.com/angelmondragon/entrydesk-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/entrydesk-backend/pkg/types"
)

func actorRef(p Principal) *outbox.ActorRef {
	return &outbox.ActorRef{UserID: p.ID, Role: p.Role}
}

func submittedEvent(p Principal, e *models.Entry) outbox.DomainEvent {
	return outbox.DomainEvent{
		EventType:     enums.EventEntrySubmitted,
		AggregateType: enums.AggregateEntry,
		AggregateID:   e.ID,
		Actor:         actorRef(p),
		OccurredAt:    e.CreatedAt,
		Data: payloads.EntrySubmittedEvent{
			EntryID:   e.ID,
			OwnerID:   e.OwnerID,
			Amount:    e.Amount,
			EntryDate: types.NewDate(e.EntryDate).String(),
			Category:  e.Category,
		},
	}
}

func decidedEvent(p Principal, e *models.Entry, d Decision) outbox.DomainEvent {
	eventType := enums.EventEntryApproved
	if d.Status == enums.EntryStatusRejected {
		eventType = enums.EventEntryRejected
	}
	return outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateEntry,
		AggregateID:   e.ID,
		Actor:         actorRef(p),
		OccurredAt:    d.DecidedAt,
		Data: payloads.EntryDecidedEvent{
			EntryID:         e.ID,
			OwnerID:         e.OwnerID,
			ReviewerID:      d.ReviewerID,
			Status:          d.Status,
			Amount:          e.Amount,
			EntryDate:       types.NewDate(e.EntryDate).String(),
			DecidedAt:       d.DecidedAt,
			RejectionReason: d.RejectionReason,
		},
	}
}
