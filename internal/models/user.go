package models

import "time"

// Gender values stored on a profile. Anything else (including NULL) is unset.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// User is both the account and the public profile.
type User struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	Username string `gorm:"unique;not null" json:"username"`
	Email    string `gorm:"unique;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	FullName    string     `json:"full_name"`
	Gender      *string    `gorm:"type:varchar(16)" json:"gender"`
	Country     string     `json:"country"`
	DateOfBirth *time.Time `gorm:"type:date" json:"date_of_birth,omitempty"`
	PhoneNumber string     `json:"phone_number,omitempty"`
	Address     string     `json:"address,omitempty"`
	Bio         string     `json:"bio"`
	Avatar      string     `json:"avatar"` // object storage URL

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Author is the slice of a profile embedded in decision and comment views.
type Author struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Avatar   string `json:"avatar"`
}

func (u User) Author() Author {
	return Author{ID: u.ID, Username: u.Username, FullName: u.FullName, Avatar: u.Avatar}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ProfileUpdate carries optional profile edits; nil fields are left unchanged.
// An empty Gender clears it.
type ProfileUpdate struct {
	FullName    *string    `json:"full_name"`
	Gender      *string    `json:"gender"`
	Country     *string    `json:"country"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	PhoneNumber *string    `json:"phone_number"`
	Address     *string    `json:"address"`
	Bio         *string    `json:"bio"`
}

type AuthResponse struct {
	Token   string `json:"token"`
	User    User   `json:"user"`
	Message string `json:"message"`
}
