package repository

import (
	"brandlink/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *models.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var u models.User
	err := r.db.First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var u models.User
	err := r.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) UpdateFCMToken(id uint, token string) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Update("fcm_token", token).Error
}

type InfluencerRepository struct {
	db *gorm.DB
}

func NewInfluencerRepository(db *gorm.DB) *InfluencerRepository {
	return &InfluencerRepository{db: db}
}

func (r *InfluencerRepository) Create(i *models.Influencer) error {
	return r.db.Create(i).Error
}

func (r *InfluencerRepository) GetByID(id uint) (*models.Influencer, error) {
	var i models.Influencer
	err := r.db.Preload("User").First(&i, id).Error
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *InfluencerRepository) GetByUserID(userID uint) (*models.Influencer, error) {
	var i models.Influencer
	err := r.db.Preload("User").Where("user_id = ?", userID).First(&i).Error
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// GetForUpdate locks the influencer row; bank account changes for one
// influencer serialize on it.
func (r *InfluencerRepository) GetForUpdate(id uint) (*models.Influencer, error) {
	var i models.Influencer
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&i, id).Error
	if err != nil {
		return nil, err
	}
	return &i, nil
}

type BrandRepository struct {
	db *gorm.DB
}

func NewBrandRepository(db *gorm.DB) *BrandRepository {
	return &BrandRepository{db: db}
}

func (r *BrandRepository) Create(b *models.Brand) error {
	return r.db.Create(b).Error
}

func (r *BrandRepository) GetByID(id uint) (*models.Brand, error) {
	var b models.Brand
	err := r.db.First(&b, id).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BrandRepository) GetByUserID(userID uint) (*models.Brand, error) {
	var b models.Brand
	err := r.db.Where("user_id = ?", userID).First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}
