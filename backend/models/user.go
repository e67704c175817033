package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           string    `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	Name         string    `gorm:"not null" bson:"name" json:"name"`
	Email        string    `gorm:"uniqueIndex;not null" bson:"email" json:"email"`
	Password     string    `gorm:"not null" bson:"password" json:"-"`
	Role         Role      `gorm:"size:16;default:user" bson:"role" json:"role"`
	Subscription []string  `gorm:"-" bson:"subscription" json:"subscription"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// IsSubscribed reports whether courseID is in the user's subscription list.
func (u *User) IsSubscribed(courseID string) bool {
	for _, id := range u.Subscription {
		if id == courseID {
			return true
		}
	}
	return false
}

// Subscription is the relational form of User.Subscription.
type Subscription struct {
	UserID    string `gorm:"primaryKey;size:36"`
	CourseID  string `gorm:"primaryKey;size:36;index"`
	CreatedAt time.Time
}

func NewID() string {
	return uuid.NewString()
}
