package domain

import "time"

// User is the credential record. VerifyToken is set at signup and cleared on
// verification; ResetToken and ResetTokenExpiry are always set or cleared
// together.
type User struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Email            string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash     string     `gorm:"column:password;not null" json:"-"`
	Name             string     `gorm:"not null" json:"name"`
	IsVerified       bool       `gorm:"not null;default:false" json:"isVerified"`
	VerifyToken      *string    `gorm:"uniqueIndex" json:"-"`
	ResetToken       *string    `gorm:"uniqueIndex" json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}
