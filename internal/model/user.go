package model

import "time"

type Role string

const (
	RoleUser    Role = "user"
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
)

// User holds the credentials of an account, the rest lives in Profile.
type User struct {
	ID           string    `gorm:"primaryKey;uuid;not null" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

type Profile struct {
	ID         string    `gorm:"primaryKey;uuid;not null" json:"id"` // same as User.ID
	Email      string    `gorm:"not null" json:"email"`
	FullName   string    `json:"full_name"`
	Company    string    `json:"company"`
	Position   string    `json:"position"`
	Phone      string    `json:"phone"`
	AvatarURL  string    `json:"avatar_url"`
	Role       Role      `gorm:"not null" json:"role"`
	Department string    `json:"department"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}
