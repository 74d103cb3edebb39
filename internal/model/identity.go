package model

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Identity authentication identity owned by the auth provider
type Identity struct {
	ID               string                 `json:"id" gorm:"primaryKey;type:uuid"`
	Email            string                 `json:"email" gorm:"type:varchar(255);uniqueIndex"`
	Password         string                 `json:"-" gorm:"type:varchar(100)"`
	EmailConfirmedAt *time.Time             `json:"email_confirmed_at"`
	OTPSecret        string                 `json:"-" gorm:"type:varchar(64)"`
	Metadata         map[string]interface{} `json:"user_metadata" gorm:"serializer:json;type:jsonb"`
	LastSignInAt     *time.Time             `json:"last_sign_in_at"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// TableName table name
func (Identity) TableName() string {
	return "identities"
}

// BeforeCreate assigns a UUID when the caller did not
func (i *Identity) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}

// EmailConfirmed reports whether the email has been confirmed
func (i *Identity) EmailConfirmed() bool {
	return i.EmailConfirmedAt != nil
}

// SetPassword stores the bcrypt hash of password
func (i *Identity) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	i.Password = string(hashed)
	return nil
}

// ValidatePassword compares password against the stored hash
func (i *Identity) ValidatePassword(password string) bool {
	if i.Password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(i.Password), []byte(password)) == nil
}

// DisplayName returns the display_name metadata entry, if any
func (i *Identity) DisplayName() string {
	if i.Metadata == nil {
		return ""
	}
	name, _ := i.Metadata["display_name"].(string)
	return name
}
