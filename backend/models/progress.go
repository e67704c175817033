package models

import (
	"time"

	"gorm.io/gorm"
)

type Progress struct {
	ID                string    `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	UserID            string    `gorm:"size:36;not null;uniqueIndex:idx_progress_user_course" bson:"user" json:"user"`
	CourseID          string    `gorm:"size:36;not null;uniqueIndex:idx_progress_user_course" bson:"course" json:"course"`
	CompletedLectures []string  `gorm:"-" bson:"completedLectures" json:"completedLectures"`
	CreatedAt         time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (p *Progress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	return nil
}

// ProgressLecture is one completed lecture of a Progress record.
type ProgressLecture struct {
	ProgressID string `gorm:"primaryKey;size:36"`
	LectureID  string `gorm:"primaryKey;size:36;index"`
	CreatedAt  time.Time
}

// ProgressResult tells which branch of an idempotent progress upsert was taken.
type ProgressResult int

const (
	ProgressCreated ProgressResult = iota
	ProgressAdded
	ProgressAlreadyRecorded
)

// CourseProgress is the computed view returned to learners.
type CourseProgress struct {
	Percentage        float64    `json:"courseProgressPercentage"`
	CompletedLectures int        `json:"completedLectures"`
	AllLectures       int        `json:"allLectures"`
	Progress          []Progress `json:"progress"`
}

// Percentage returns completed/total as a percentage, 0 for an empty course.
func Percentage(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}
