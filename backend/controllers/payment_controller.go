package controllers

import (
	"github.com/gofiber/fiber/v2"

	"elearning/backend/middleware"
	"elearning/backend/services"
	"elearning/backend/utils"
)

type PaymentController struct {
	Payments *services.PaymentService
}

func NewPaymentController(payments *services.PaymentService) *PaymentController {
	return &PaymentController{Payments: payments}
}

// Checkout godoc
// @Summary Initiate course checkout
// @Tags payments
// @Produce json
// @Param id path string true "Course ID"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.MessageResponse
// @Failure 404 {object} utils.MessageResponse
// @Security ApiKeyAuth
// @Router /course/checkout/{id} [post]
func (pc *PaymentController) Checkout(c *fiber.Ctx) error {
	link, course, err := pc.Payments.Checkout(c.UserContext(), middleware.CurrentUser(c), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"order":  link,
		"course": course,
	})
}

// PaymentVerification godoc
// @Summary Verify a payment and enroll
// @Tags payments
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param request body services.VerifyPaymentInput true "Checkout order"
// @Success 200 {object} utils.MessageResponse
// @Failure 400 {object} utils.MessageResponse
// @Security ApiKeyAuth
// @Router /verification/{id} [post]
func (pc *PaymentController) PaymentVerification(c *fiber.Ctx) error {
	var input services.VerifyPaymentInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if err := pc.Payments.Verify(c.UserContext(), middleware.CurrentUser(c), c.Params("id"), input); err != nil {
		return handleError(c, err)
	}
	return utils.Message(c, fiber.StatusOK, "Course Verified and Added Successfully")
}

// CreatePaymentLink answers in plain text on failure.
func (pc *PaymentController) CreatePaymentLink(c *fiber.Ctx) error {
	var input struct {
		Amount      int64  `json:"amount"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&input); err != nil || input.Amount <= 0 || input.Description == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Amount and description are required")
	}

	link, err := pc.Payments.CreatePaymentLink(c.UserContext(), input.Amount, input.Description)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}
	return c.JSON(fiber.Map{
		"checkoutUrl": link.CheckoutURL,
		"orderCode":   link.OrderCode,
	})
}

// ReceiveHook echoes the gateway notification back.
func (pc *PaymentController) ReceiveHook(c *fiber.Ctx) error {
	body := append([]byte(nil), c.Body()...)
	if err := pc.Payments.Webhook(body); err != nil {
		return handleError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).Send(body)
}
