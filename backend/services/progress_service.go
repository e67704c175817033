package services

import (
	"context"
	"errors"

	"elearning/backend/models"
	"elearning/backend/repository"
)

type ProgressService struct {
	Deps
}

// Add marks a lecture of a course as completed by the user.
func (s *ProgressService) Add(ctx context.Context, userID, courseID, lectureID string) (models.ProgressResult, error) {
	if _, err := s.Store.Courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, newError(KindNotFound, "Course not found")
		}
		return 0, internal(err)
	}
	lecture, err := s.Store.Lectures.FindByID(ctx, lectureID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && lecture.CourseID != courseID) {
		return 0, newError(KindNotFound, "Lecture not found")
	}
	if err != nil {
		return 0, internal(err)
	}

	result, err := s.Store.Progress.MarkCompleted(ctx, userID, courseID, lectureID)
	if err != nil {
		return 0, internal(err)
	}
	return result, nil
}

func (s *ProgressService) Get(ctx context.Context, userID, courseID string) (*models.CourseProgress, error) {
	progress, err := s.Store.Progress.Find(ctx, userID, courseID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(KindNotFound, "No progress found")
	}
	if err != nil {
		return nil, internal(err)
	}
	total, err := s.Store.Lectures.CountByCourse(ctx, courseID)
	if err != nil {
		return nil, internal(err)
	}

	completed := len(progress.CompletedLectures)
	return &models.CourseProgress{
		Percentage:        models.Percentage(completed, int(total)),
		CompletedLectures: completed,
		AllLectures:       int(total),
		Progress:          []models.Progress{*progress},
	}, nil
}
