package model

import "time"

const (
	ItemEventCreated = "item.created"
	ItemEventUpdated = "item.updated"
	ItemEventDeleted = "item.deleted"
)

// ItemEvent describes one committed mutation of an Item. It travels over the
// event queue as JSON and is stored by the audit worker.
type ItemEvent struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	Type       string    `gorm:"size:32;not null;index" json:"type"`
	ItemID     uint      `gorm:"not null;index" json:"item_id"`
	Title      string    `gorm:"size:120" json:"title,omitempty"`
	Done       bool      `json:"done"`
	OccurredAt time.Time `gorm:"not null" json:"occurred_at"`
	CreatedAt  time.Time `json:"-"`
}
