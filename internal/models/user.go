package models

import "time"

// User is a registered account. FollowedUsers and FollowedCategories are
// follow edges; the relational store keeps them in join tables and fills
// these slices on read.
type User struct {
	ID                 string    `gorm:"primaryKey;type:uuid" bson:"_id" json:"id"`
	Username           string    `gorm:"not null" bson:"username" json:"username"`
	UsernameKey        string    `gorm:"uniqueIndex;not null" bson:"username_key" json:"-"`
	Password           string    `gorm:"not null" bson:"password" json:"-"`
	RegisteredAt       time.Time `gorm:"not null" bson:"registered_at" json:"registered_at"`
	Avatar             string    `bson:"avatar" json:"avatar"`
	Bio                string    `bson:"bio" json:"bio"`
	FollowedUsers      []string  `gorm:"-" bson:"followed_users" json:"followed_users"`
	FollowedCategories []string  `gorm:"-" bson:"followed_categories" json:"followed_categories"`
}

// Author is the projection of a User embedded in post and comment responses.
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// AuthorOf projects u for display.
func AuthorOf(u User) Author {
	return Author{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}
