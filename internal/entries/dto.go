package entries

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/entrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/entrydesk-backend/pkg/enums"
	"github.com/angelmondragon/entrydesk-backend/pkg/types"
)

// EntryDTO is the API shape of an entry. Amount is rendered with exactly two decimals.
type EntryDTO struct {
	ID              uuid.UUID           `json:"id"`
	OwnerID         uuid.UUID           `json:"owner_id"`
	Amount          string              `json:"amount"`
	EntryDate       types.Date          `json:"entry_date"`
	Description     string              `json:"description"`
	Category        enums.EntryCategory `json:"category"`
	Status          enums.EntryStatus   `json:"status"`
	ReviewerID      *uuid.UUID          `json:"reviewer_id"`
	DecidedAt       *time.Time          `json:"decided_at"`
	RejectionReason *string             `json:"rejection_reason"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// CreateEntryInput is a new submission. Owner and status are never taken from the client.
type CreateEntryInput struct {
	Amount      decimal.Decimal
	EntryDate   types.Date
	Description string
	Category    enums.EntryCategory
}

// UpdateEntryInput holds the editable content fields; nil fields are left unchanged.
type UpdateEntryInput struct {
	Amount      *decimal.Decimal
	EntryDate   *types.Date
	Description *string
	Category    *enums.EntryCategory
}

func (u UpdateEntryInput) empty() bool {
	return u.Amount == nil && u.EntryDate == nil && u.Description == nil && u.Category == nil
}

func FromModel(e *models.Entry) *EntryDTO {
	if e == nil {
		return nil
	}
	return &EntryDTO{
		ID:              e.ID,
		OwnerID:         e.OwnerID,
		Amount:          e.Amount.StringFixed(2),
		EntryDate:       types.NewDate(e.EntryDate),
		Description:     e.Description,
		Category:        e.Category,
		Status:          e.Status,
		ReviewerID:      e.ReviewerID,
		DecidedAt:       e.DecidedAt,
		RejectionReason: e.RejectionReason,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func fromModels(rows []models.Entry) []EntryDTO {
	out := make([]EntryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
