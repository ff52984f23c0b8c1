package repository

import (
	"errors"

	"brandlink/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) GetByOwner(userID uint, userType string) (*models.Wallet, error) {
	var w models.Wallet
	err := r.db.Where("user_id = ? AND user_type = ?", userID, userType).First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetForUpdate reads the owner's wallet with a row lock; concurrent
// mutations of the same wallet serialize on it.
func (r *WalletRepository) GetForUpdate(userID uint, userType string) (*models.Wallet, error) {
	var w models.Wallet
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND user_type = ?", userID, userType).First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetOrCreateForUpdate is GetForUpdate, creating an empty wallet first if
// the owner has none.
func (r *WalletRepository) GetOrCreateForUpdate(userID uint, userType, currency string) (*models.Wallet, error) {
	w, err := r.GetForUpdate(userID, userType)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	w = &models.Wallet{UserID: userID, UserType: userType, Currency: currency, IsActive: true}
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(w).Error; err != nil {
		return nil, err
	}
	return r.GetForUpdate(userID, userType)
}

func (r *WalletRepository) Save(w *models.Wallet) error {
	return r.db.Save(w).Error
}

func (r *WalletRepository) CreateEntry(t *models.WalletTransaction) error {
	return r.db.Create(t).Error
}

func (r *WalletRepository) GetEntryByReference(ref string) (*models.WalletTransaction, error) {
	var t models.WalletTransaction
	err := r.db.Where("reference = ?", ref).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *WalletRepository) EntryExists(ref string) (bool, error) {
	var n int64
	err := r.db.Model(&models.WalletTransaction{}).Where("reference = ?", ref).Count(&n).Error
	return n > 0, err
}

func (r *WalletRepository) ListEntries(walletID uint, offset, limit int) ([]models.WalletTransaction, int64, error) {
	var total int64
	if err := r.db.Model(&models.WalletTransaction{}).Where("wallet_id = ?", walletID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []models.WalletTransaction
	err := r.db.Where("wallet_id = ?", walletID).Order("id DESC").Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}
