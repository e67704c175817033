package controllers

import (
	"github.com/gofiber/fiber/v2"

	"elearning/backend/services"
)

type AnalyticsController struct {
	Admin *services.AdminService
}

func NewAnalyticsController(admin *services.AdminService) *AnalyticsController {
	return &AnalyticsController{Admin: admin}
}

// GetStats godoc
// @Summary Platform totals
// @Description Number of courses, lectures and users
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.MessageResponse
// @Security ApiKeyAuth
// @Router /stats [get]
func (ac *AnalyticsController) GetStats(c *fiber.Ctx) error {
	stats, err := ac.Admin.Stats(c.UserContext())
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{"stats": stats})
}
