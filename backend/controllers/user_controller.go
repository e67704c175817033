package controllers

import (
	"github.com/gofiber/fiber/v2"

	"elearning/backend/middleware"
	"elearning/backend/services"
)

type UserController struct {
	Courses *services.CourseService
	Admin   *services.AdminService
}

func NewUserController(courses *services.CourseService, admin *services.AdminService) *UserController {
	return &UserController{Courses: courses, Admin: admin}
}

// GetProfile godoc
// @Summary Get user profile
// @Description Returns authenticated user's profile data
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.MessageResponse
// @Security ApiKeyAuth
// @Router /user/me [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"user": middleware.CurrentUser(c)})
}

// GetMyCourses godoc
// @Summary Courses the user is subscribed to
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /mycourse [get]
func (uc *UserController) GetMyCourses(c *fiber.Ctx) error {
	courses, err := uc.Courses.MyCourses(c.UserContext(), middleware.CurrentUser(c))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{"courses": courses})
}

// UpdateRole switches the target user between user and admin.
func (uc *UserController) UpdateRole(c *fiber.Ctx) error {
	user, err := uc.Admin.ToggleRole(c.UserContext(), middleware.CurrentUser(c), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Role updated successfully",
		"user":    user,
	})
}

func (uc *UserController) GetAllUsers(c *fiber.Ctx) error {
	users, err := uc.Admin.Users(c.UserContext(), middleware.CurrentUser(c).ID)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{"users": users})
}
