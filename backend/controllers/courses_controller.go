package controllers

import (
	"github.com/gofiber/fiber/v2"

	"elearning/backend/middleware"
	"elearning/backend/services"
	"elearning/backend/utils"
)

type CoursesController struct {
	Courses *services.CourseService
}

func NewCoursesController(courses *services.CourseService) *CoursesController {
	return &CoursesController{Courses: courses}
}

// GetAllCourses godoc
// @Summary List courses
// @Tags courses
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /course/all [get]
func (cc *CoursesController) GetAllCourses(c *fiber.Ctx) error {
	courses, err := cc.Courses.List(c.UserContext())
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{"courses": courses})
}

// GetCourseDetails godoc
// @Summary Get a course
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.MessageResponse
// @Router /course/{id} [get]
func (cc *CoursesController) GetCourseDetails(c *fiber.Ctx) error {
	course, err := cc.Courses.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{"course": course})
}

// CreateCourse godoc
// @Summary Create a course
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Course image"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.MessageResponse
// @Failure 403 {object} utils.MessageResponse
// @Security ApiKeyAuth
// @Router /course/new [post]
func (cc *CoursesController) CreateCourse(c *fiber.Ctx) error {
	var input services.CourseInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid form data")
	}
	if up := middleware.Uploaded(c); up != nil {
		input.Image = up.Ref
		input.Thumbnail = up.Thumbnail
	}

	course, err := cc.Courses.Create(c.UserContext(), input)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Course created successfully",
		"course":  course,
	})
}

// AddLecture godoc
// @Summary Add a lecture to a course
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Course ID"
// @Param file formData file true "Lecture video"
// @Success 201 {object} map[string]interface{}
// @Failure 404 {object} utils.MessageResponse
// @Security ApiKeyAuth
// @Router /course/{id} [post]
func (cc *CoursesController) AddLecture(c *fiber.Ctx) error {
	var input services.LectureInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid form data")
	}
	if up := middleware.Uploaded(c); up != nil {
		input.Video = up.Ref
	}

	lecture, err := cc.Courses.AddLecture(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Lecture added successfully",
		"lecture": lecture,
	})
}

func (cc *CoursesController) DeleteCourse(c *fiber.Ctx) error {
	if err := cc.Courses.Delete(c.UserContext(), c.Params("id")); err != nil {
		return handleError(c, err)
	}
	return utils.Message(c, fiber.StatusOK, "Course deleted successfully")
}

func (cc *CoursesController) DeleteLecture(c *fiber.Ctx) error {
	if err := cc.Courses.DeleteLecture(c.UserContext(), c.Params("id")); err != nil {
		return handleError(c, err)
	}
	return utils.Message(c, fiber.StatusOK, "Lecture deleted successfully")
}

// GetLectures godoc
// @Summary Lectures of a course
// @Description Admins and subscribers only
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.MessageResponse
// @Security ApiKeyAuth
// @Router /lectures/{id} [get]
func (cc *CoursesController) GetLectures(c *fiber.Ctx) error {
	lectures, err := cc.Courses.Lectures(c.UserContext(), middleware.CurrentUser(c), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{"lectures": lectures})
}

func (cc *CoursesController) GetLecture(c *fiber.Ctx) error {
	lecture, err := cc.Courses.Lecture(c.UserContext(), middleware.CurrentUser(c), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{"lecture": lecture})
}
