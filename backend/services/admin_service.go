package services

import (
	"context"
	"errors"

	"elearning/backend/models"
	"elearning/backend/repository"
)

type AdminService struct {
	Deps
}

func (s *AdminService) Stats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	var err error
	if stats.TotalCourses, err = s.Store.Courses.Count(ctx); err != nil {
		return nil, internal(err)
	}
	if stats.TotalLectures, err = s.Store.Lectures.Count(ctx); err != nil {
		return nil, internal(err)
	}
	if stats.TotalUsers, err = s.Store.Users.Count(ctx); err != nil {
		return nil, internal(err)
	}
	return &stats, nil
}

// ToggleRole switches the target between user and admin. Only a superadmin may do it.
func (s *AdminService) ToggleRole(ctx context.Context, actor *models.User, targetID string) (*models.User, error) {
	if actor == nil || !actor.Role.IsSuperAdmin() {
		return nil, newError(KindForbidden, "This endpoint is assin to superadmin")
	}
	user, err := s.Store.Users.FindByID(ctx, targetID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(KindNotFound, "User not found")
	}
	if err != nil {
		return nil, internal(err)
	}
	if user.Role.IsSuperAdmin() {
		return nil, newError(KindConflict, "Cannot change role of a superadmin")
	}

	next := models.RoleAdmin
	if user.Role == models.RoleAdmin {
		next = models.RoleUser
	}
	if err := s.Store.Users.UpdateRole(ctx, user.ID, next); err != nil {
		return nil, internal(err)
	}
	user.Role = next
	s.Logger.Infow("role updated", "user", user.ID, "role", next)
	return user, nil
}

func (s *AdminService) Users(ctx context.Context, requesterID string) ([]models.User, error) {
	users, err := s.Store.Users.ListExcept(ctx, requesterID)
	if err != nil {
		return nil, internal(err)
	}
	return users, nil
}
