package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"elapor/internal/model"

	"gorm.io/gorm"
)

// ErrRecordNotFound returned by Delete when no identity matched
var ErrRecordNotFound = gorm.ErrRecordNotFound

// IdentityRepository auth identity repository
type IdentityRepository interface {
	Create(ctx context.Context, identity *model.Identity) error
	GetByID(ctx context.Context, id string) (*model.Identity, error)
	GetByEmail(ctx context.Context, email string) (*model.Identity, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateMetadata(ctx context.Context, id string, metadata map[string]interface{}) error
	ConfirmEmail(ctx context.Context, id string, at time.Time) error
	UpdateLastSignIn(ctx context.Context, id string, at time.Time) error
	// Delete removes the identity and, in the same transaction, its admin record
	Delete(ctx context.Context, id string) error
}

// identityRepository gorm implementation
type identityRepository struct {
	db *gorm.DB
}

// NewIdentityRepository creates the identity repository
func NewIdentityRepository(db *gorm.DB) IdentityRepository {
	return &identityRepository{db: db}
}

// Create inserts an identity
func (r *identityRepository) Create(ctx context.Context, identity *model.Identity) error {
	identity.Email = strings.ToLower(strings.TrimSpace(identity.Email))
	return r.db.WithContext(ctx).Create(identity).Error
}

// GetByID returns nil, nil when not found
func (r *identityRepository) GetByID(ctx context.Context, id string) (*model.Identity, error) {
	var identity model.Identity
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&identity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &identity, nil
}

// GetByEmail returns nil, nil when not found
func (r *identityRepository) GetByEmail(ctx context.Context, email string) (*model.Identity, error) {
	var identity model.Identity
	email = strings.ToLower(strings.TrimSpace(email))
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&identity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &identity, nil
}

// UpdatePassword stores an already hashed password
func (r *identityRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.db.WithContext(ctx).Model(&model.Identity{}).Where("id = ?", id).Update("password", passwordHash).Error
}

// UpdateMetadata replaces the metadata document
func (r *identityRepository) UpdateMetadata(ctx context.Context, id string, metadata map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Identity{ID: id}).Select("metadata").Updates(&model.Identity{Metadata: metadata}).Error
}

// ConfirmEmail sets email_confirmed_at
func (r *identityRepository) ConfirmEmail(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Identity{}).Where("id = ?", id).Update("email_confirmed_at", at).Error
}

// UpdateLastSignIn bypasses hooks
func (r *identityRepository) UpdateLastSignIn(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Identity{}).Where("id = ?", id).UpdateColumn("last_sign_in_at", at).Error
}

// Delete removes identity and admin record together
func (r *identityRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&model.AdminRecord{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&model.Identity{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrRecordNotFound
		}
		return nil
	})
}
