package repository

import (
	"time"

	"brandlink/internal/domain"
	"brandlink/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(t *models.Transaction) error {
	return r.db.Create(t).Error
}

func (r *TransactionRepository) GetByID(id uint) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.First(&t, id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) GetByReference(ref string) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.Where("payment_reference = ?", ref).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetForUpdate reads the row with a write lock held until the surrounding
// transaction ends.
func (r *TransactionRepository) GetForUpdate(id uint) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&t, id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) GetByCommissionRef(ref string) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.Where("commission_transfer_ref = ?", ref).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) GetByInfluencerTransferRef(ref string) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.Where("influencer_transfer_ref = ?", ref).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) Update(t *models.Transaction) error {
	return r.db.Save(t).Error
}

// Claim moves a pending transaction to processing. It reports false when
// the row was no longer pending, i.e. another delivery got there first.
func (r *TransactionRepository) Claim(id uint, gatewayTxID string) (bool, error) {
	res := r.db.Model(&models.Transaction{}).
		Where("id = ? AND payment_status = ?", id, domain.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_status":         domain.PaymentStatusProcessing,
			"gateway_transaction_id": gatewayTxID,
		})
	return res.RowsAffected == 1, res.Error
}

// MarkFailed moves a pending transaction to failed.
func (r *TransactionRepository) MarkFailed(id uint, gatewayTxID string) (bool, error) {
	res := r.db.Model(&models.Transaction{}).
		Where("id = ? AND payment_status = ?", id, domain.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_status":         domain.PaymentStatusFailed,
			"gateway_transaction_id": gatewayTxID,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *TransactionRepository) list(column string, id uint, offset, limit int) ([]models.Transaction, int64, error) {
	var total int64
	q := r.db.Model(&models.Transaction{}).Where(column+" = ?", id)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []models.Transaction
	err := r.db.Where(column+" = ?", id).Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}

func (r *TransactionRepository) ListByBrand(brandID uint, offset, limit int) ([]models.Transaction, int64, error) {
	return r.list("brand_id", brandID, offset, limit)
}

func (r *TransactionRepository) ListByInfluencer(influencerID uint, offset, limit int) ([]models.Transaction, int64, error) {
	return r.list("influencer_id", influencerID, offset, limit)
}

func (r *TransactionRepository) listAll(column string, id uint) ([]models.Transaction, error) {
	var out []models.Transaction
	err := r.db.Where(column+" = ?", id).Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}

// AllByBrand returns every transaction of the brand, newest first.
func (r *TransactionRepository) AllByBrand(brandID uint) ([]models.Transaction, error) {
	return r.listAll("brand_id", brandID)
}

func (r *TransactionRepository) AllByInfluencer(influencerID uint) ([]models.Transaction, error) {
	return r.listAll("influencer_id", influencerID)
}

// FailedCommissions returns settled transactions whose commission transfer
// failed and still has attempts left, oldest first.
func (r *TransactionRepository) FailedCommissions(maxAttempts, limit int) ([]models.Transaction, error) {
	var out []models.Transaction
	err := r.db.Where("payment_status = ? AND commission_transfer_status = ? AND commission_attempts < ?",
		domain.PaymentStatusCompleted, domain.TransferStatusFailed, maxAttempts).
		Order("id ASC").Limit(limit).Find(&out).Error
	return out, err
}

// StuckProcessing returns transactions left in processing since before cutoff.
func (r *TransactionRepository) StuckProcessing(cutoff time.Time) ([]models.Transaction, error) {
	var out []models.Transaction
	err := r.db.Where("payment_status = ? AND updated_at < ?", domain.PaymentStatusProcessing, cutoff).
		Order("updated_at ASC").Find(&out).Error
	return out, err
}
