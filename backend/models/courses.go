package models

import (
	"time"

	"gorm.io/gorm"
)

type Course struct {
	ID          string    `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	Title       string    `gorm:"not null" bson:"title" json:"title"`
	Description string    `bson:"description" json:"description"`
	Image       string    `bson:"image" json:"image"`
	Thumbnail   string    `bson:"thumbnail,omitempty" json:"thumbnail,omitempty"`
	Price       float64   `bson:"price" json:"price"`
	Duration    float64   `bson:"duration" json:"duration"`
	Category    string    `gorm:"index" bson:"category" json:"category"`
	CreatedBy   string    `bson:"createdBy" json:"createdBy"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	return nil
}

type Lecture struct {
	ID          string    `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	Title       string    `gorm:"not null" bson:"title" json:"title"`
	Description string    `bson:"description" json:"description"`
	Video       string    `bson:"video" json:"video"`
	CourseID    string    `gorm:"size:36;index;not null" bson:"course" json:"course"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

func (l *Lecture) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = NewID()
	}
	return nil
}

// Stats is the platform-wide counter set shown to admins.
type Stats struct {
	TotalCourses  int64 `json:"totalCourses"`
	TotalLectures int64 `json:"totalLectures"`
	TotalUsers    int64 `json:"totalUsers"`
}
