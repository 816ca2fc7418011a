package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/authgate/internal/models"
)

var ErrNotFound = errors.New("user not found")
var ErrUserAlreadyExist = errors.New("user already exist")

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).
		Where("id = ? AND status = ?", id, models.StatusActive).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) FindByCriteria(ctx context.Context, criteria map[string]any) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).
		Where(criteria).
		Where("status = ?", models.StatusActive).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) CreateIfNotExists(ctx context.Context, u *models.User) error {
	tx := r.DB.WithContext(ctx).Where("email = ?", u.Email).FirstOrCreate(u)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrUserAlreadyExist
	}
	return nil
}

// RotateCredentials replaces the user's token_id and token_secret, which
// invalidates every token issued under the old pair.
func (r *GormRepo) RotateCredentials(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		user.TokenID = uuid.NewString()
		user.TokenSecret = uuid.NewString()
		return tx.Model(&models.User{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"token_id":     user.TokenID,
				"token_secret": user.TokenSecret,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
