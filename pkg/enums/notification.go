package enums

import "fmt"

// NotificationType classifies in-app notifications produced from entry events.
type NotificationType string

const (
	NotificationTypeEntrySubmitted     NotificationType = "ENTRY_SUBMITTED"
	NotificationTypeEntryApproved      NotificationType = "ENTRY_APPROVED"
	NotificationTypeEntryRejected      NotificationType = "ENTRY_REJECTED"
	NotificationTypeEntryReviewOverdue NotificationType = "ENTRY_REVIEW_OVERDUE"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeEntrySubmitted,
	NotificationTypeEntryApproved,
	NotificationTypeEntryRejected,
	NotificationTypeEntryReviewOverdue,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// NotificationAudience decides who can see a notification: its recipient or every admin.
type NotificationAudience string

const (
	NotificationAudienceUser  NotificationAudience = "USER"
	NotificationAudienceAdmin NotificationAudience = "ADMIN"
)

func (a NotificationAudience) IsValid() bool {
	return a == NotificationAudienceUser || a == NotificationAudienceAdmin
}
