package models

import "time"

const UserTable = "srh_users"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDocente Role = "docente"
)

type User struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Role      Role      `gorm:"size:20;not null;default:'docente'" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string { return UserTable }
