package models

import "time"

// Direction is the kind of reaction a user leaves.
type Direction int8

const (
	Like    Direction = 1
	Dislike Direction = -1
)

func (d Direction) String() string {
	if d == Dislike {
		return "dislike"
	}
	return "like"
}

// TargetKind names what a reaction or follow points at.
type TargetKind string

const (
	TargetPost     TargetKind = "post"
	TargetComment  TargetKind = "comment"
	TargetUser     TargetKind = "user"
	TargetCategory TargetKind = "category"
)

// Target identifies an entity by kind and ID.
type Target struct {
	Kind TargetKind
	ID   string
}

// Reaction is one user's like or dislike on a post or comment. The primary
// key allows a single row per (target, user), so a user can never be in both
// the likes and dislikes of the same entity.
type Reaction struct {
	TargetType TargetKind `gorm:"primaryKey;size:16"`
	TargetID   string     `gorm:"primaryKey;type:uuid"`
	UserID     string     `gorm:"primaryKey;type:uuid;index"`
	Direction  Direction  `gorm:"not null"`
	CreatedAt  time.Time  `gorm:"not null"`
}

// Outcome reports what a reaction toggle did.
type Outcome int

const (
	// Reacted means the reaction is now set (any opposite one was cleared).
	Reacted Outcome = iota
	// Unreacted means the same reaction was already set and has been removed.
	Unreacted
)

func (o Outcome) String() string {
	if o == Unreacted {
		return "unreacted"
	}
	return "reacted"
}
