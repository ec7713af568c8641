package models

import "time"

// Caption is a rateable gallery item. The application only ever reads
// captions; they are seeded out of band.
type Caption struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"not null" json:"content"`
	ImageURL  string    `json:"image_url,omitempty"`
	Featured  bool      `gorm:"default:false" json:"featured"`
	CreatedAt time.Time `json:"created_at"`
}
