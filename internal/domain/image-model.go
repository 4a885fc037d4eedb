package domain

import "time"

type Image struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"userId"`
	User       *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Filename   string    `gorm:"not null" json:"filename"`
	StorageKey string    `gorm:"uniqueIndex;not null" json:"-"`
	URL        string    `gorm:"not null" json:"url"`
	Type       string    `json:"type,omitempty"`
	Width      int       `json:"width,omitempty"`
	Height     int       `json:"height,omitempty"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"createdAt"`
}
