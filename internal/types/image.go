package types

import (
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"
)

type Image struct {
  ID                  uuid.UUID                 `gorm:"type:uuid;primaryKey" json:"id"`
  UserID              uuid.UUID                 `gorm:"type:uuid;index:idx_image_user_prompt;not null;column:user_id" json:"user"`
  User                *AuthUser                 `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`

  Prompt              string                    `gorm:"index:idx_image_user_prompt;not null;column:prompt" json:"prompt"`
  ImageURL            string                    `gorm:"not null;column:image_url" json:"imageUrl"`

  CreatedAt           time.Time                 `gorm:"not null;autoCreateTime;index" json:"createdAt"`
  UpdatedAt           time.Time                 `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

func (Image) TableName() string {
  return "image"
}

func (img *Image) BeforeCreate(tx *gorm.DB) error {
  if img.ID == uuid.Nil {
    img.ID = uuid.New()
  }
  return nil
}
