// Package repository persists the platform's documents. Two backends implement the same
// interfaces: GORM (postgres or sqlite) and MongoDB.
package repository

import (
	"context"
	"errors"

	"elearning/backend/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrInvalidRole is returned when a role outside models.Role's constants is stored.
	ErrInvalidRole = errors.New("invalid role")
)

type UserRepository interface {
	// Create inserts a user. It returns ErrDuplicate when the e-mail is taken.
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ListExcept(ctx context.Context, id string) ([]models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// UpdateRole returns ErrInvalidRole for an unknown role.
	UpdateRole(ctx context.Context, id string, role models.Role) error
	Count(ctx context.Context) (int64, error)
	// AddSubscription appends courseID to the user's subscription if absent.
	// It reports whether this call added it.
	AddSubscription(ctx context.Context, userID, courseID string) (bool, error)
}

type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	FindByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context) ([]models.Course, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Course, error)
	// Delete removes the course, its lectures, its progress records and every
	// subscription to it. It returns the deleted lectures so their media can be removed.
	Delete(ctx context.Context, id string) ([]models.Lecture, error)
	Count(ctx context.Context) (int64, error)
}

type LectureRepository interface {
	Create(ctx context.Context, lecture *models.Lecture) error
	FindByID(ctx context.Context, id string) (*models.Lecture, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Lecture, error)
	Delete(ctx context.Context, id string) error
	CountByCourse(ctx context.Context, courseID string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type ProgressRepository interface {
	// Ensure creates an empty record for (userID, courseID) if none exists.
	Ensure(ctx context.Context, userID, courseID string) error
	Find(ctx context.Context, userID, courseID string) (*models.Progress, error)
	// MarkCompleted adds lectureID to the completed set of (userID, courseID),
	// creating the record when needed.
	MarkCompleted(ctx context.Context, userID, courseID, lectureID string) (models.ProgressResult, error)
}

type PaymentRepository interface {
	// Create stores a pending order. It returns ErrDuplicate when the order id is taken.
	Create(ctx context.Context, payment *models.Payment) error
	FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	// MarkPaid moves a pending order to paid. It reports whether this call did it,
	// and returns ErrNotFound for an unknown order.
	MarkPaid(ctx context.Context, orderID, reference string) (bool, error)
}

// Store groups the repositories of one backend.
type Store struct {
	Users    UserRepository
	Courses  CourseRepository
	Lectures LectureRepository
	Progress ProgressRepository
	Payments PaymentRepository

	close func(ctx context.Context) error
}

func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}
