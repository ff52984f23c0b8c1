package repository

import (
	"time"

	"brandlink/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WebhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

// Record inserts the event unless the provider already delivered it. It
// reports whether the row is new.
func (r *WebhookEventRepository) Record(e *models.WebhookEvent) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(e)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *WebhookEventRepository) MarkProcessed(id uint, processingErr error) error {
	now := time.Now()
	updates := map[string]interface{}{"processed_at": &now, "processing_error": ""}
	if processingErr != nil {
		updates["processing_error"] = processingErr.Error()
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *WebhookEventRepository) GetByEventID(provider, eventID string) (*models.WebhookEvent, error) {
	var e models.WebhookEvent
	err := r.db.Where("provider = ? AND event_id = ?", provider, eventID).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ClaimRetry takes a failed event back for another dispatch. attempts is
// the count the caller read; of concurrent callers only one wins.
func (r *WebhookEventRepository) ClaimRetry(id uint, attempts int) (bool, error) {
	res := r.db.Model(&models.WebhookEvent{}).
		Where("id = ? AND attempts = ? AND processing_error <> ''", id, attempts).
		Update("attempts", gorm.Expr("attempts + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListFailed returns events whose last dispatch failed and that have been
// tried fewer than maxAttempts times, oldest first.
func (r *WebhookEventRepository) ListFailed(maxAttempts, limit int) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	err := r.db.Where("processing_error <> '' AND attempts < ?", maxAttempts).
		Order("id ASC").Limit(limit).Find(&events).Error
	return events, err
}
