package models

import "time"

// Comment belongs to exactly one post. Likes and Dislikes never share a member.
type Comment struct {
	ID        string    `gorm:"primaryKey;type:uuid" bson:"_id" json:"id"`
	PostID    string    `gorm:"type:uuid;index;not null" bson:"post" json:"post"`
	AuthorID  string    `gorm:"type:uuid;index;not null" bson:"author" json:"-"`
	Content   string    `gorm:"not null" bson:"content" json:"content"`
	CreatedAt time.Time `gorm:"index;not null" bson:"created_at" json:"created_at"`
	Likes     []string  `gorm:"-" bson:"likes" json:"likes"`
	Dislikes  []string  `gorm:"-" bson:"dislikes" json:"dislikes"`
}
