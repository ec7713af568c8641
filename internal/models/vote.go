package models

import "time"

const (
	DirectionUp   = 1
	DirectionDown = -1
)

// Vote model - tracks individual user votes on captions. At most one row per
// (user, caption) pair, enforced by the composite unique index.
type Vote struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"uniqueIndex:idx_votes_user_caption;not null" json:"user_id"`
	CaptionID string    `gorm:"uniqueIndex:idx_votes_user_caption;not null" json:"caption_id"`
	Direction int       `gorm:"not null" json:"direction"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VoteMap is a user's committed votes folded into caption id -> direction.
type VoteMap map[string]int

func ValidDirection(d int) bool {
	return d == DirectionUp || d == DirectionDown
}
