package types

import (
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"
)

// AuthUser is the per-email credential record. OTP holds the ciphertext of the
// current one-time code and is nil once the code has been consumed.
type AuthUser struct {
  ID                  uuid.UUID                 `gorm:"type:uuid;primaryKey" json:"id"`
  Email               string                    `gorm:"uniqueIndex;not null;column:email" json:"email"`
  OTP                 *string                   `gorm:"column:otp" json:"-"`
  IsVerified          bool                      `gorm:"not null;default:false;column:is_verified" json:"isVerified"`

  CreatedAt           time.Time                 `gorm:"not null;autoCreateTime" json:"createdAt"`
  UpdatedAt           time.Time                 `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

func (AuthUser) TableName() string {
  return "auth_user"
}

func (au *AuthUser) BeforeCreate(tx *gorm.DB) error {
  if au.ID == uuid.Nil {
    au.ID = uuid.New()
  }
  return nil
}

// HasOTP reports whether a code is currently outstanding.
func (au *AuthUser) HasOTP() bool {
  return au.OTP != nil && *au.OTP != ""
}
