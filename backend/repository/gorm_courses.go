package repository

import (
	"context"

	"gorm.io/gorm"

	"elearning/backend/models"
)

type gormCourses struct {
	db *gorm.DB
}

func (r *gormCourses) Create(ctx context.Context, course *models.Course) error {
	return gormErr(r.db.WithContext(ctx).Create(course).Error, "create course")
}

func (r *gormCourses) FindByID(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&course).Error; err != nil {
		return nil, gormErr(err, "find course")
	}
	return &course, nil
}

func (r *gormCourses) List(ctx context.Context) ([]models.Course, error) {
	courses := []models.Course{}
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&courses).Error
	return courses, gormErr(err, "list courses")
}

func (r *gormCourses) ListByIDs(ctx context.Context, ids []string) ([]models.Course, error) {
	courses := []models.Course{}
	if len(ids) == 0 {
		return courses, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("created_at DESC").Find(&courses).Error
	return courses, gormErr(err, "list courses by id")
}

func (r *gormCourses) Delete(ctx context.Context, id string) ([]models.Lecture, error) {
	var lectures []models.Lecture
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.Course{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("course_id = ?", id).Find(&lectures).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&models.Lecture{}).Error; err != nil {
			return err
		}
		progressIDs := tx.Model(&models.Progress{}).Select("id").Where("course_id = ?", id)
		if err := tx.Where("progress_id IN (?)", progressIDs).Delete(&models.ProgressLecture{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&models.Progress{}).Error; err != nil {
			return err
		}
		return tx.Where("course_id = ?", id).Delete(&models.Subscription{}).Error
	})
	if err != nil {
		return nil, gormErr(err, "delete course")
	}
	return lectures, nil
}

func (r *gormCourses) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Course{}).Count(&n).Error
	return n, gormErr(err, "count courses")
}

type gormLectures struct {
	db *gorm.DB
}

func (r *gormLectures) Create(ctx context.Context, lecture *models.Lecture) error {
	return gormErr(r.db.WithContext(ctx).Create(lecture).Error, "create lecture")
}

func (r *gormLectures) FindByID(ctx context.Context, id string) (*models.Lecture, error) {
	var lecture models.Lecture
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&lecture).Error; err != nil {
		return nil, gormErr(err, "find lecture")
	}
	return &lecture, nil
}

func (r *gormLectures) ListByCourse(ctx context.Context, courseID string) ([]models.Lecture, error) {
	lectures := []models.Lecture{}
	err := r.db.WithContext(ctx).Where("course_id = ?", courseID).Order("created_at").Find(&lectures).Error
	return lectures, gormErr(err, "list lectures")
}

func (r *gormLectures) Delete(ctx context.Context, id string) error {
	return gormErr(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.Lecture{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("lecture_id = ?", id).Delete(&models.ProgressLecture{}).Error
	}), "delete lecture")
}

func (r *gormLectures) CountByCourse(ctx context.Context, courseID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Lecture{}).Where("course_id = ?", courseID).Count(&n).Error
	return n, gormErr(err, "count course lectures")
}

func (r *gormLectures) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Lecture{}).Count(&n).Error
	return n, gormErr(err, "count lectures")
}
