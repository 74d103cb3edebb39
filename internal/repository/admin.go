package repository

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"elapor/internal/model"

	"gorm.io/gorm"
)

// AdminSearch server-side roster query
type AdminSearch struct {
	Query  string
	Status model.AdminStatus
	Offset int
	Limit  int
}

// AdminRepository admin record repository
type AdminRepository interface {
	Create(ctx context.Context, admin *model.AdminRecord) error
	GetByUserID(ctx context.Context, userID string) (*model.AdminRecord, error)
	GetByEmail(ctx context.Context, email string) (*model.AdminRecord, error)
	List(ctx context.Context) ([]model.AdminRecord, error)
	Search(ctx context.Context, search AdminSearch) ([]model.AdminRecord, int64, error)
	UpsertSuperAdmins(ctx context.Context, admins []model.AdminRecord) (int64, error)
	MarkVerified(ctx context.Context, userID string) error
	UpdateProfile(ctx context.Context, userID string, fields map[string]interface{}) error
	CountSuperAdmins(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// adminRepository gorm implementation
type adminRepository struct {
	db *gorm.DB
}

// NewAdminRepository creates the admin repository
func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

// Create inserts an admin record
func (r *adminRepository) Create(ctx context.Context, admin *model.AdminRecord) error {
	admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))
	return r.db.WithContext(ctx).Create(admin).Error
}

// GetByUserID returns nil, nil when no record exists
func (r *adminRepository) GetByUserID(ctx context.Context, userID string) (*model.AdminRecord, error) {
	var admin model.AdminRecord
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}

// GetByEmail returns nil, nil when no record exists
func (r *adminRepository) GetByEmail(ctx context.Context, email string) (*model.AdminRecord, error) {
	var admin model.AdminRecord
	email = strings.ToLower(strings.TrimSpace(email))
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[DEBUG] No admin record for %s", email)
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}

// List returns the full roster, newest first
func (r *adminRepository) List(ctx context.Context) ([]model.AdminRecord, error) {
	var admins []model.AdminRecord
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&admins).Error
	return admins, err
}

// Search filters with ilike over display name/email, status, order and range
func (r *adminRepository) Search(ctx context.Context, search AdminSearch) ([]model.AdminRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.AdminRecord{})
	if q := strings.TrimSpace(search.Query); q != "" {
		like := "%" + q + "%"
		query = query.Where("display_name ILIKE ? OR email ILIKE ?", like, like)
	}
	switch search.Status {
	case model.AdminStatusVerified:
		query = query.Where("is_verified = ?", true)
	case model.AdminStatusPending:
		query = query.Where("is_verified = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var admins []model.AdminRecord
	if search.Limit <= 0 {
		search.Limit = 10
	}
	if err := query.Order("created_at DESC").Offset(search.Offset).Limit(search.Limit).Find(&admins).Error; err != nil {
		return nil, 0, err
	}
	return admins, total, nil
}

// UpsertSuperAdmins applies the super-admin flag of every record in a single
// UPDATE and returns the number of rows written. Records whose row has been
// deleted are skipped, never re-inserted.
func (r *adminRepository) UpsertSuperAdmins(ctx context.Context, admins []model.AdminRecord) (int64, error) {
	if len(admins) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(admins))
	var promoted []string
	for _, a := range admins {
		ids = append(ids, a.UserID)
		if a.IsSuperAdmin {
			promoted = append(promoted, a.UserID)
		}
	}

	var flag interface{} = false
	if len(promoted) > 0 {
		flag = gorm.Expr("user_id IN ?", promoted)
	}

	result := r.db.WithContext(ctx).Model(&model.AdminRecord{}).
		Where("user_id IN ?", ids).
		Updates(map[string]interface{}{
			"is_super_admin": flag,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// MarkVerified flags the admin as verified
func (r *adminRepository) MarkVerified(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Model(&model.AdminRecord{}).
		Where("user_id = ?", userID).
		Update("is_verified", true).Error
}

// UpdateProfile updates display_name / profile_img
func (r *adminRepository) UpdateProfile(ctx context.Context, userID string, fields map[string]interface{}) error {
	allowed := make(map[string]interface{}, len(fields))
	for _, key := range []string{"display_name", "profile_img"} {
		if v, ok := fields[key]; ok {
			allowed[key] = v
		}
	}
	if len(allowed) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.AdminRecord{}).Where("user_id = ?", userID).Updates(allowed).Error
}

// CountSuperAdmins number of super admins
func (r *adminRepository) CountSuperAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.AdminRecord{}).Where("is_super_admin = ?", true).Count(&count).Error
	return count, err
}

// Count number of admins
func (r *adminRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.AdminRecord{}).Count(&count).Error
	return count, err
}
