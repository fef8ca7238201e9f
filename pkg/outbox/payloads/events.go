package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/entrydesk-backend/pkg/enums"
)

// EntrySubmittedEvent is emitted when an owner creates an entry.
type EntrySubmittedEvent struct {
	EntryID   uuid.UUID           `json:"entry_id"`
	OwnerID   uuid.UUID           `json:"owner_id"`
	Amount    decimal.Decimal     `json:"amount"`
	EntryDate string              `json:"entry_date"`
	Category  enums.EntryCategory `json:"category"`
}

// EntryDecidedEvent is emitted for both approvals and rejections; the event
// type tells them apart and RejectionReason is only set on rejection.
type EntryDecidedEvent struct {
	EntryID         uuid.UUID         `json:"entry_id"`
	OwnerID         uuid.UUID         `json:"owner_id"`
	ReviewerID      uuid.UUID         `json:"reviewer_id"`
	Status          enums.EntryStatus `json:"status"`
	Amount          decimal.Decimal   `json:"amount"`
	EntryDate       string            `json:"entry_date"`
	DecidedAt       time.Time         `json:"decided_at"`
	RejectionReason *string           `json:"rejection_reason,omitempty"`
}

// EntryReviewOverdueEvent reminds admins that an entry has waited past the review SLA.
type EntryReviewOverdueEvent struct {
	EntryID     uuid.UUID `json:"entry_id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	SubmittedAt time.Time `json:"submitted_at"`
	PendingFor  string    `json:"pending_for"`
}
