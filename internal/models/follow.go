package models

import "time"

// UserFollow is a follow edge from one user to another.
type UserFollow struct {
	FollowerID string    `gorm:"primaryKey;type:uuid"`
	FollowedID string    `gorm:"primaryKey;type:uuid;index"`
	CreatedAt  time.Time `gorm:"not null"`
}

// CategoryFollow is a follow edge from a user to a category.
type CategoryFollow struct {
	UserID     string    `gorm:"primaryKey;type:uuid"`
	CategoryID string    `gorm:"primaryKey;type:uuid;index"`
	CreatedAt  time.Time `gorm:"not null"`
}
