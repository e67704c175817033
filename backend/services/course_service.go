package services

import (
	"context"
	"errors"
	"strings"

	"elearning/backend/events"
	"elearning/backend/models"
	"elearning/backend/repository"
	"elearning/backend/utils"
)

type CourseService struct {
	Deps
}

type CourseInput struct {
	Title       string  `json:"title" form:"title" validate:"required,max=200"`
	Description string  `json:"description" form:"description" validate:"required"`
	Price       float64 `json:"price" form:"price" validate:"gte=0"`
	Duration    float64 `json:"duration" form:"duration" validate:"gte=0"`
	Category    string  `json:"category" form:"category" validate:"required"`
	CreatedBy   string  `json:"createdBy" form:"createdBy" validate:"required"`
	Image       string  `json:"-" form:"-"`
	Thumbnail   string  `json:"-" form:"-"`
}

type LectureInput struct {
	Title       string `json:"title" form:"title" validate:"required,max=200"`
	Description string `json:"description" form:"description" validate:"required"`
	Video       string `json:"-" form:"-"`
}

func (s *CourseService) Create(ctx context.Context, in CourseInput) (*models.Course, error) {
	in.Title = strings.TrimSpace(in.Title)
	if errs := utils.ValidateStruct(in); errs != nil {
		return nil, newError(KindValidation, utils.FirstMessage(errs))
	}
	if in.Image == "" {
		return nil, newError(KindValidation, "Please upload an image")
	}

	course := &models.Course{
		Title:       in.Title,
		Description: in.Description,
		Image:       in.Image,
		Thumbnail:   in.Thumbnail,
		Price:       in.Price,
		Duration:    in.Duration,
		Category:    in.Category,
		CreatedBy:   in.CreatedBy,
	}
	if err := s.Store.Courses.Create(ctx, course); err != nil {
		return nil, internal(err)
	}
	s.Logger.Infow("course created", "course", course.ID, "title", course.Title)
	return course, nil
}

func (s *CourseService) AddLecture(ctx context.Context, courseID string, in LectureInput) (*models.Lecture, error) {
	if _, err := s.findCourse(ctx, courseID, "No Course with this id"); err != nil {
		return nil, err
	}
	if errs := utils.ValidateStruct(in); errs != nil {
		return nil, newError(KindValidation, utils.FirstMessage(errs))
	}
	if in.Video == "" {
		return nil, newError(KindValidation, "Please upload a video")
	}

	lecture := &models.Lecture{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Video:       in.Video,
		CourseID:    courseID,
	}
	if err := s.Store.Lectures.Create(ctx, lecture); err != nil {
		return nil, internal(err)
	}
	return lecture, nil
}

func (s *CourseService) findCourse(ctx context.Context, id, notFound string) (*models.Course, error) {
	course, err := s.Store.Courses.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(KindNotFound, notFound)
	}
	if err != nil {
		return nil, internal(err)
	}
	return course, nil
}

// Delete removes a course with its lectures, media, progress records and subscriptions.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	course, err := s.findCourse(ctx, id, "Course not found")
	if err != nil {
		return err
	}
	lectures, err := s.Store.Courses.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return newError(KindNotFound, "Course not found")
	}
	if err != nil {
		return internal(err)
	}

	refs := []string{course.Image, course.Thumbnail}
	for _, l := range lectures {
		refs = append(refs, l.Video)
	}
	s.removeMedia(ctx, refs...)

	s.Logger.Infow("course deleted", "course", id, "lectures", len(lectures))
	s.publish(ctx, events.Event{Type: events.CourseDeleted, CourseID: id})
	return nil
}

func (s *CourseService) DeleteLecture(ctx context.Context, id string) error {
	lecture, err := s.Store.Lectures.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return newError(KindNotFound, "Lecture not found")
	}
	if err != nil {
		return internal(err)
	}
	if err := s.Store.Lectures.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(KindNotFound, "Lecture not found")
		}
		return internal(err)
	}
	s.removeMedia(ctx, lecture.Video)
	return nil
}

func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	courses, err := s.Store.Courses.List(ctx)
	if err != nil {
		return nil, internal(err)
	}
	return courses, nil
}

func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	return s.findCourse(ctx, id, "Course not found")
}

func canAccess(user *models.User, courseID string) bool {
	return user.Role.CanAdminister() || user.IsSubscribed(courseID)
}

// Lectures lists a course's lectures for an admin or a subscriber.
func (s *CourseService) Lectures(ctx context.Context, user *models.User, courseID string) ([]models.Lecture, error) {
	if !canAccess(user, courseID) {
		return nil, newError(KindValidation, "You have not subscribed to this course")
	}
	lectures, err := s.Store.Lectures.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, internal(err)
	}
	return lectures, nil
}

func (s *CourseService) Lecture(ctx context.Context, user *models.User, id string) (*models.Lecture, error) {
	lecture, err := s.Store.Lectures.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(KindNotFound, "Lecture not found")
	}
	if err != nil {
		return nil, internal(err)
	}
	if !canAccess(user, lecture.CourseID) {
		return nil, newError(KindValidation, "You have not subscribed to this course")
	}
	return lecture, nil
}

func (s *CourseService) MyCourses(ctx context.Context, user *models.User) ([]models.Course, error) {
	courses, err := s.Store.Courses.ListByIDs(ctx, user.Subscription)
	if err != nil {
		return nil, internal(err)
	}
	return courses, nil
}
