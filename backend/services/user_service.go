package services

import (
	"context"
	"errors"
	"strings"

	"elearning/backend/events"
	"elearning/backend/mailer"
	"elearning/backend/models"
	"elearning/backend/repository"
	"elearning/backend/utils"
)

type UserService struct {
	Deps
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register starts a registration. Nothing is stored; the pending user travels in the
// returned activation token and the OTP is mailed.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (string, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if errs := utils.ValidateStruct(in); errs != nil {
		return "", newError(KindValidation, utils.FirstMessage(errs))
	}

	_, err := s.Store.Users.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return "", newError(KindConflict, "User already exists")
	case !errors.Is(err, repository.ErrNotFound):
		return "", internal(err)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return "", internal(err)
	}
	otp, err := utils.GenerateOTP()
	if err != nil {
		return "", internal(err)
	}
	token, err := utils.GenerateActivationToken(utils.ActivationClaims{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		OTPDigest:    utils.Digest(s.Cfg.ActivationSecret, otp, in.Email),
	}, s.Cfg.ActivationSecret, s.Cfg.ActivationTTL)
	if err != nil {
		return "", internal(err)
	}

	msg, err := mailer.OTPMessage(in.Name, in.Email, otp)
	if err != nil {
		return "", internal(err)
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		return "", internal(err)
	}
	s.Logger.Infow("registration started", "email", in.Email)
	return token, nil
}

// Verify completes a registration started by Register.
func (s *UserService) Verify(ctx context.Context, otp, activationToken string) (*models.User, error) {
	claims, err := utils.ParseActivationToken(activationToken, s.Cfg.ActivationSecret)
	if err != nil {
		return nil, newError(KindValidation, "Otp Expired")
	}
	if !utils.DigestEqual(claims.OTPDigest, s.Cfg.ActivationSecret, strings.TrimSpace(otp), claims.Email) {
		return nil, newError(KindValidation, "Wrong Otp")
	}

	user := &models.User{
		Name:     claims.Name,
		Email:    claims.Email,
		Password: claims.PasswordHash,
		Role:     models.RoleUser,
	}
	if s.Cfg.SuperAdminEmail != "" && normalizeEmail(s.Cfg.SuperAdminEmail) == claims.Email {
		user.Role = models.RoleSuperAdmin
	}
	if err := s.Store.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(KindConflict, "User already exists")
		}
		return nil, internal(err)
	}

	s.publish(ctx, events.Event{Type: events.UserRegistered, UserID: user.ID, Email: user.Email})
	return user, nil
}

// Login checks credentials and returns a session token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.Store.Users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil, newError(KindValidation, "No User with this email")
	}
	if err != nil {
		return "", nil, internal(err)
	}
	if !utils.CheckPassword(user.Password, password) {
		return "", nil, newError(KindValidation, "Wrong Password")
	}

	token, err := utils.GenerateSessionToken(user.ID, s.Cfg.JWTSecret, s.Cfg.SessionTTL)
	if err != nil {
		return "", nil, internal(err)
	}
	return token, user, nil
}

// Authenticate resolves a session token to its user.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	id, err := utils.ParseSessionToken(token, s.Cfg.JWTSecret)
	if err != nil {
		return nil, newError(KindUnauthorized, "Login First")
	}
	user, err := s.Store.Users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(KindUnauthorized, "Login First")
	}
	if err != nil {
		return nil, internal(err)
	}
	return user, nil
}

func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.Store.Users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return newError(KindNotFound, "No User with this email")
	}
	if err != nil {
		return internal(err)
	}

	token, err := utils.GenerateResetToken(user.Email, user.Password, s.Cfg.ResetSecret, s.Cfg.ResetTTL)
	if err != nil {
		return internal(err)
	}
	link := strings.TrimRight(s.Cfg.FrontendURL, "/") + "/reset-password/" + token
	msg, err := mailer.ResetMessage(user.Name, user.Email, link)
	if err != nil {
		return internal(err)
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		return internal(err)
	}
	return nil
}

// ResetPassword sets a new password. The token is single use because it is bound to
// the password hash it was issued for.
func (s *UserService) ResetPassword(ctx context.Context, token, password string) error {
	claims, err := utils.ParseResetToken(token, s.Cfg.ResetSecret)
	if err != nil {
		return newError(KindValidation, "Token Expired")
	}
	user, err := s.Store.Users.FindByEmail(ctx, claims.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return newError(KindNotFound, "No user with this email")
	}
	if err != nil {
		return internal(err)
	}
	if !utils.DigestEqual(claims.Fingerprint, s.Cfg.ResetSecret, user.Password) {
		return newError(KindValidation, "Token Expired")
	}
	if len(password) < 6 {
		return newError(KindValidation, "password must be at least 6 characters in length")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return internal(err)
	}
	if err := s.Store.Users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return internal(err)
	}
	return nil
}

// SeedSuperAdmin creates the configured super-admin account if it does not exist yet,
// and promotes it if it exists with a lower role.
func (s *UserService) SeedSuperAdmin(ctx context.Context) error {
	email := normalizeEmail(s.Cfg.SuperAdminEmail)
	if email == "" || s.Cfg.SuperAdminPassword == "" {
		return nil
	}

	existing, err := s.Store.Users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role.IsSuperAdmin() {
			return nil
		}
		s.Logger.Infow("promoting configured super admin", "email", email)
		return s.Store.Users.UpdateRole(ctx, existing.ID, models.RoleSuperAdmin)
	case !errors.Is(err, repository.ErrNotFound):
		return err
	}

	hash, err := utils.HashPassword(s.Cfg.SuperAdminPassword)
	if err != nil {
		return err
	}
	err = s.Store.Users.Create(ctx, &models.User{
		Name:     s.Cfg.SuperAdminName,
		Email:    email,
		Password: hash,
		Role:     models.RoleSuperAdmin,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil
	}
	if err == nil {
		s.Logger.Infow("super admin created", "email", email)
	}
	return err
}
