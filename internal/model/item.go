package model

import "time"

// Item is the persisted task record.
type Item struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string    `gorm:"size:120;not null" json:"title"`
	Done      bool      `gorm:"not null;default:false" json:"done"`
	CreatedAt time.Time `gorm:"autoCreateTime;<-:create" json:"created_at"`
}
