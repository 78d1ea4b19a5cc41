package models

import (
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

type User struct {
	gorm.Model
	FullName  string  `json:"full_name"`
	Email     string  `json:"email"`
	Role      Role    `json:"role" gorm:"default:User"`
	DiscordID *string `json:"-" gorm:"uniqueIndex"`
	Avatar    string  `json:"avatar"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
