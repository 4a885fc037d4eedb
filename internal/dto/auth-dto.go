package dto

type UserSignup struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserLogin struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPass" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current" validate:"required"`
	NewPassword     string `json:"newPass" validate:"required"`
}

// AuthResponse is the verified identity the auth middleware stores in
// ctx.Locals("user").
type AuthResponse struct {
	UserID    uint  `json:"userId"`
	IssuedAt  int64 `json:"iat"`
	ExpiresAt int64 `json:"exp"`
}
