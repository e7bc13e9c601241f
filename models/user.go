package models

import "time"

type JsonModel struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserAccount is populated by the external identity provider; the
// recommendation pipeline only ever reads ID and Gender from it.
type UserAccount struct {
	JsonModel
	Name   string `json:"name"`
	Email  string `json:"email" gorm:"unique"`
	Gender string `json:"gender"` // e.g., male, female, other
	Banned bool   `gorm:"default:false" json:"-"`
	LastIp string `json:"-"`
	// user app image/avatar
	AvatarURL string `json:"avatar_url"`
}
