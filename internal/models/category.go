package models

import "time"

type Category struct {
	ID          string    `gorm:"primaryKey;type:uuid" bson:"_id" json:"id"`
	Name        string    `gorm:"not null" bson:"name" json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null" bson:"slug" json:"slug"`
	Icon        string    `bson:"icon" json:"icon"`
	Description string    `bson:"description" json:"description"`
	CreatedAt   time.Time `gorm:"not null" bson:"created_at" json:"created_at"`
}

// CategoryRef is the projection of a Category embedded in post responses.
type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func RefOf(c Category) CategoryRef {
	return CategoryRef{ID: c.ID, Name: c.Name, Slug: c.Slug}
}
