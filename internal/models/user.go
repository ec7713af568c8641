package models

import "time"

type User struct {
	ID        string `gorm:"primaryKey" json:"id"`
	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`

	// GoogleID is the provider-side subject claim. Sign-in is Google-only.
	GoogleID string `gorm:"index" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
