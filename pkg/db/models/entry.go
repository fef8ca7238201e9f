package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/entrydesk-backend/pkg/enums"
)

// Entry is a dated monetary record submitted by its owner for review.
type Entry struct {
	ID              uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID         uuid.UUID           `gorm:"column:owner_id;type:uuid;not null"`
	Amount          decimal.Decimal     `gorm:"column:amount;type:numeric(10,2);not null"`
	EntryDate       time.Time           `gorm:"column:entry_date;type:date;not null"`
	Description     string              `gorm:"column:description;type:text;not null;default:''"`
	Category        enums.EntryCategory `gorm:"column:category;type:entry_category;not null;default:PERSONAL"`
	Status          enums.EntryStatus   `gorm:"column:status;type:entry_status;not null;default:PENDING"`
	ReviewerID      *uuid.UUID          `gorm:"column:reviewer_id;type:uuid"`
	DecidedAt       *time.Time          `gorm:"column:decided_at"`
	RejectionReason *string             `gorm:"column:rejection_reason;type:text"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
