package model

import (
	"strings"
	"time"
)

// AdminStatus roster status filter
type AdminStatus string

const (
	AdminStatusAll      AdminStatus = "all"
	AdminStatusVerified AdminStatus = "verified"
	AdminStatusPending  AdminStatus = "pending"
)

// ParseAdminStatus falls back to AdminStatusAll for unknown values
func ParseAdminStatus(s string) AdminStatus {
	switch AdminStatus(strings.ToLower(strings.TrimSpace(s))) {
	case AdminStatusVerified:
		return AdminStatusVerified
	case AdminStatusPending:
		return AdminStatusPending
	default:
		return AdminStatusAll
	}
}

// AdminRecord one administrative user and their verification/role status
type AdminRecord struct {
	UserID       string    `json:"user_id" gorm:"primaryKey;type:uuid"`
	Email        string    `json:"email" gorm:"type:varchar(255);uniqueIndex"`
	DisplayName  string    `json:"display_name" gorm:"type:varchar(100)"`
	ProfileImg   string    `json:"profile_img" gorm:"type:varchar(500)"`
	IsVerified   bool      `json:"is_verified" gorm:"default:false"`
	IsSuperAdmin bool      `json:"is_super_admin" gorm:"default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName table name
func (AdminRecord) TableName() string {
	return "admins"
}

// Matches reports whether the record passes a free-text query and status filter
func (a *AdminRecord) Matches(query string, status AdminStatus) bool {
	switch status {
	case AdminStatusVerified:
		if !a.IsVerified {
			return false
		}
	case AdminStatusPending:
		if a.IsVerified {
			return false
		}
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(a.DisplayName), query) ||
		strings.Contains(strings.ToLower(a.Email), query)
}

// PendingEdit a staged, not yet persisted super-admin flag change
type PendingEdit struct {
	UserID       string `json:"user_id"`
	IsSuperAdmin bool   `json:"is_super_admin"`
}
