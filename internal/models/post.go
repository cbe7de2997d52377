package models

import "time"

// PostType tags how a post's content was produced.
type PostType string

const (
	PostText  PostType = "text"
	PostImage PostType = "image"
	PostVideo PostType = "video"
)

// ParsePostType validates a type query parameter.
func ParsePostType(s string) (PostType, bool) {
	switch t := PostType(s); t {
	case PostText, PostImage, PostVideo:
		return t, true
	}
	return "", false
}

// Post is a piece of content in a category. Likes and Dislikes never share
// a member. CommentIDs is in insertion order.
type Post struct {
	ID         string    `gorm:"primaryKey;type:uuid" bson:"_id"`
	AuthorID   string    `gorm:"type:uuid;index;not null" bson:"author"`
	Title      string    `gorm:"not null" bson:"title"`
	Content    string    `gorm:"not null" bson:"content"`
	Type       PostType  `gorm:"not null;default:text" bson:"type"`
	CategoryID string    `gorm:"type:uuid;index;not null" bson:"category"`
	CreatedAt  time.Time `gorm:"index;not null" bson:"created_at"`
	Slug       string    `gorm:"uniqueIndex;not null" bson:"slug"`
	Likes      []string  `gorm:"-" bson:"likes"`
	Dislikes   []string  `gorm:"-" bson:"dislikes"`
	CommentIDs []string  `gorm:"-" bson:"comments"`
}
