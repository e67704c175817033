package controllers

import (
	"github.com/gofiber/fiber/v2"

	"elearning/backend/middleware"
	"elearning/backend/models"
	"elearning/backend/services"
	"elearning/backend/utils"
)

type ProgressController struct {
	Progress *services.ProgressService
}

func NewProgressController(progress *services.ProgressService) *ProgressController {
	return &ProgressController{Progress: progress}
}

// AddProgress godoc
// @Summary Mark a lecture as completed
// @Tags progress
// @Produce json
// @Param course query string true "Course ID"
// @Param lectureId query string true "Lecture ID"
// @Success 200 {object} utils.MessageResponse
// @Success 201 {object} utils.MessageResponse
// @Failure 404 {object} utils.MessageResponse
// @Security ApiKeyAuth
// @Router /user/progress [post]
func (pc *ProgressController) AddProgress(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	result, err := pc.Progress.Add(c.UserContext(), user.ID, c.Query("course"), c.Query("lectureId"))
	if err != nil {
		return handleError(c, err)
	}

	switch result {
	case models.ProgressCreated:
		return utils.Message(c, fiber.StatusCreated, "New Progress added")
	case models.ProgressAdded:
		return utils.Message(c, fiber.StatusOK, "New Progress added")
	default:
		return utils.Message(c, fiber.StatusOK, "Progress recorded")
	}
}

// GetProgress godoc
// @Summary Get course progress
// @Description Completed lectures and percentage for one course
// @Tags progress
// @Produce json
// @Param course query string true "Course ID"
// @Success 200 {object} models.CourseProgress
// @Failure 404 {object} utils.MessageResponse
// @Security ApiKeyAuth
// @Router /user/progress [get]
func (pc *ProgressController) GetProgress(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	progress, err := pc.Progress.Get(c.UserContext(), user.ID, c.Query("course"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(progress)
}
