package dto

import "time"

type UpdateUserProfile struct {
	Name string `json:"name" validate:"required"`
}

type UserProfileResponse struct {
	ID         uint      `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
}
