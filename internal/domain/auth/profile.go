package auth

import "time"

// Profile maps an external identity to its role.
type Profile struct {
	ID        string    `gorm:"primaryKey;column:id" json:"id"`
	Email     string    `gorm:"column:email" json:"email,omitempty"`
	Role      Role      `gorm:"not null;column:role;default:analyst" json:"role"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Profile) TableName() string { return "profiles" }
