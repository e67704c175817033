package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"elearning/backend/models"
)

type gormProgress struct {
	db *gorm.DB
}

func (r *gormProgress) Ensure(ctx context.Context, userID, courseID string) error {
	_, err := r.ensure(r.db.WithContext(ctx), userID, courseID)
	return gormErr(err, "ensure progress")
}

// ensure inserts the (user, course) record if absent and reports whether it did.
func (r *gormProgress) ensure(tx *gorm.DB, userID, courseID string) (bool, error) {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Progress{UserID: userID, CourseID: courseID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *gormProgress) Find(ctx context.Context, userID, courseID string) (*models.Progress, error) {
	db := r.db.WithContext(ctx)
	var progress models.Progress
	if err := db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&progress).Error; err != nil {
		return nil, gormErr(err, "find progress")
	}
	var rows []models.ProgressLecture
	if err := db.Where("progress_id = ?", progress.ID).Order("created_at").Find(&rows).Error; err != nil {
		return nil, gormErr(err, "load completed lectures")
	}
	progress.CompletedLectures = make([]string, 0, len(rows))
	for _, row := range rows {
		progress.CompletedLectures = append(progress.CompletedLectures, row.LectureID)
	}
	return &progress, nil
}

func (r *gormProgress) MarkCompleted(ctx context.Context, userID, courseID, lectureID string) (models.ProgressResult, error) {
	result := models.ProgressAlreadyRecorded
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := r.ensure(tx, userID, courseID)
		if err != nil {
			return err
		}
		var progress models.Progress
		if err := tx.Select("id").Where("user_id = ? AND course_id = ?", userID, courseID).First(&progress).Error; err != nil {
			return err
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.ProgressLecture{ProgressID: progress.ID, LectureID: lectureID})
		if res.Error != nil {
			return res.Error
		}
		switch {
		case created:
			result = models.ProgressCreated
		case res.RowsAffected == 1:
			result = models.ProgressAdded
			return tx.Model(&models.Progress{}).Where("id = ?", progress.ID).Update("updated_at", time.Now()).Error
		}
		return nil
	})
	if err != nil {
		return 0, gormErr(err, "mark lecture completed")
	}
	return result, nil
}
