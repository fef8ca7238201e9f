package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/entrydesk-backend/pkg/enums"
)

// Notification is an in-app message. USER audience rows target UserID;
// ADMIN audience rows are shared by every administrator.
type Notification struct {
	ID        uuid.UUID                  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Audience  enums.NotificationAudience `gorm:"type:notification_audience;not null"`
	UserID    *uuid.UUID                 `gorm:"column:user_id;type:uuid"`
	EntryID   *uuid.UUID                 `gorm:"column:entry_id;type:uuid"`
	Type      enums.NotificationType     `gorm:"type:notification_type;not null"`
	Title     string                     `gorm:"type:text;not null"`
	Message   string                     `gorm:"type:text;not null"`
	ReadAt    *time.Time                 `gorm:"type:timestamptz"`
	CreatedAt time.Time                  `gorm:"type:timestamptz;default:now()"`
}
