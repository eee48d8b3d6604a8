package repository

import (
	"context"
	stderrors "errors"
	"strings"

	"gorm.io/gorm"

	"sellnext/internal/domain/entity"
	"sellnext/internal/domain/repository"
	"sellnext/pkg/errors"
)

type gormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) repository.UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) Create(ctx context.Context, user *entity.User) error {
	rec := newUserRecord(user)
	rec.Email = strings.ToLower(rec.Email)

	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.Conflict("User already exists with this email")
		}
		return errors.Internal("Failed to create user", err)
	}
	return nil
}

func (r *gormUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var rec userRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to get user", err)
	}
	return rec.toEntity(), nil
}

func (r *gormUserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	var rec userRecord
	if err := r.db.WithContext(ctx).First(&rec, "email = ?", strings.ToLower(email)).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to query user by email", err)
	}
	return rec.toEntity(), nil
}

func (r *gormUserRepository) Update(ctx context.Context, user *entity.User) error {
	result := r.db.WithContext(ctx).Model(&userRecord{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"full_name":  user.FullName,
		"phone":      user.Phone,
		"location":   user.Location,
		"avatar_url": user.AvatarURL,
		"bio":        user.Bio,
		"updated_at": user.UpdatedAt,
	})
	if result.Error != nil {
		return errors.Internal("Failed to update user", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NotFound("User", nil)
	}
	return nil
}
