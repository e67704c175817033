package controllers

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"

	"elearning/backend/services"
	"elearning/backend/utils"
)

type AuthController struct {
	Users *services.UserService
}

func NewAuthController(users *services.UserService) *AuthController {
	return &AuthController{Users: users}
}

// [+] Register godoc
// @Summary Register a new user
// @Description Sends an OTP to the e-mail and returns the activation token
// @Tags auth
// @Accept json
// @Produce json
// @Param user body services.RegisterInput true "User registration data"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.MessageResponse
// @Router /user/register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input services.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	token, err := ac.Users.Register(c.UserContext(), input)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":         "OTP sent to your email",
		"activationToken": token,
	})
}

type verifyInput struct {
	OTP             json.RawMessage `json:"otp"`
	ActivationToken string          `json:"activationToken"`
}

// otpString accepts the code as a JSON number or a JSON string.
func otpString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// [+] Verify godoc
// @Summary Verify registration OTP
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} utils.MessageResponse
// @Failure 400 {object} utils.MessageResponse
// @Router /user/verify [post]
func (ac *AuthController) Verify(c *fiber.Ctx) error {
	var input verifyInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if _, err := ac.Users.Verify(c.UserContext(), otpString(input.OTP), input.ActivationToken); err != nil {
		return handleError(c, err)
	}
	return utils.Message(c, fiber.StatusOK, "User Registered")
}

// [+] Login godoc
// @Summary User login
// @Description Authenticate user and return the session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body map[string]interface{} true "Login credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.MessageResponse
// @Router /user/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	type LoginInput struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var input LoginInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	token, user, err := ac.Users.Login(c.UserContext(), input.Email, input.Password)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Welcome back " + user.Name,
		"token":   token,
		"user":    user,
	})
}

func (ac *AuthController) ForgotPassword(c *fiber.Ctx) error {
	var input struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if err := ac.Users.ForgotPassword(c.UserContext(), input.Email); err != nil {
		return handleError(c, err)
	}
	return utils.Message(c, fiber.StatusOK, "Reset Password Link is send to you mail")
}

func (ac *AuthController) ResetPassword(c *fiber.Ctx) error {
	var input struct {
		Password string `json:"password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if err := ac.Users.ResetPassword(c.UserContext(), c.Query("token"), input.Password); err != nil {
		return handleError(c, err)
	}
	return utils.Message(c, fiber.StatusOK, "Password Reset")
}
