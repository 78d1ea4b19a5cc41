package models

import (
	"time"

	"gorm.io/gorm"
)

// APIKey lets scripts call the admin endpoints (for example a nightly
// auto-mark) without a browser session. Only the SHA-256 of the key is kept.
type APIKey struct {
	gorm.Model
	UserID     uint       `json:"user_id" gorm:"index"`
	User       User       `json:"-"`
	Hash       string     `json:"-" gorm:"uniqueIndex"`
	Suffix     string     `json:"suffix"`
	Name       string     `json:"name"`
	ExpiresAt  *time.Time `json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
}
