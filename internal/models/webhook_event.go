package models

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookEvent stores every verified provider callback. The unique
// (provider, event_id) pair makes redelivery a no-op once the event has been
// handled without error.
type WebhookEvent struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Provider        string         `gorm:"size:20;not null;uniqueIndex:idx_webhook_provider_event,priority:1" json:"provider"`
	EventID         string         `gorm:"size:191;not null;uniqueIndex:idx_webhook_provider_event,priority:2" json:"event_id"`
	EventType       string         `gorm:"size:100;not null;index" json:"event_type"`
	Payload         datatypes.JSON `json:"payload"`
	ProcessedAt     *time.Time     `json:"processed_at,omitempty"`
	ProcessingError string         `gorm:"type:text" json:"processing_error,omitempty"`
	Attempts        int            `gorm:"not null;default:1" json:"attempts"`
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}
