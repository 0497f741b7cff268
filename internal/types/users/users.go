package users

import (
	"time"

	"github.com/princekumarofficial/journal-service/internal/types"
)

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=6"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdatePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// UpdateInfosRequest is decoded strictly: keys other than email and username
// are rejected.
type UpdateInfosRequest struct {
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=32"`
}

// User is the persisted account. Password holds the bcrypt hash and is never
// serialized.
type User struct {
	ID            types.EntityID `json:"_id"`
	Email         string         `json:"email"`
	Username      string         `json:"username"`
	Password      string         `json:"-"`
	LongestStreak int            `json:"longest_streak"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Patch lists the profile fields a user may change. Nil means unchanged.
type Patch struct {
	Email    *string
	Username *string
}

func (p Patch) Empty() bool {
	return p.Email == nil && p.Username == nil
}

type Infos struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

type Streaks struct {
	LongestStreak int `json:"longest_streak"`
	CurrentStreak int `json:"current_streak"`
}

type Tokens struct {
	UserID       types.EntityID `json:"user_id"`
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token,omitempty"`
}
