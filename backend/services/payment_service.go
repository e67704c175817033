package services

import (
	"context"
	"errors"
	"math"
	"strings"

	"elearning/backend/events"
	"elearning/backend/models"
	"elearning/backend/payment"
	"elearning/backend/repository"
)

type PaymentService struct {
	Deps
}

// VerifyPaymentInput names the order opened by Checkout.
type VerifyPaymentInput struct {
	OrderID string `json:"orderId"`
}

var errPaymentFailed = newError(KindValidation, "Payment Failed")

func (s *PaymentService) frontendURL(path string) string {
	return strings.TrimRight(s.Cfg.FrontendURL, "/") + path
}

func (s *PaymentService) course(ctx context.Context, user *models.User, courseID string) (*models.Course, error) {
	if user.IsSubscribed(courseID) {
		return nil, newError(KindConflict, "You already have this course")
	}
	course, err := s.Store.Courses.FindByID(ctx, courseID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(KindNotFound, "Course not found")
	}
	if err != nil {
		return nil, internal(err)
	}
	return course, nil
}

// Checkout opens a gateway order for the course price and stores it as pending
// for the user and course.
func (s *PaymentService) Checkout(ctx context.Context, user *models.User, courseID string) (*payment.CheckoutLink, *models.Course, error) {
	course, err := s.course(ctx, user, courseID)
	if err != nil {
		return nil, nil, err
	}

	amount := price(course)
	link, err := s.Gateway.CreatePaymentLink(ctx, payment.Order{
		Amount:      amount,
		Description: payment.TrimDescription(course.Title),
		ReturnURL:   s.frontendURL("/success"),
		CancelURL:   s.frontendURL("/cancel"),
	})
	if err != nil {
		return nil, nil, internal(err)
	}
	err = s.Store.Payments.Create(ctx, &models.Payment{
		OrderID:   link.OrderID,
		OrderCode: link.OrderCode,
		UserID:    user.ID,
		CourseID:  course.ID,
		Amount:    amount,
	})
	if err != nil {
		return nil, nil, internal(err)
	}
	s.Logger.Infow("checkout created", "user", user.ID, "course", course.ID, "orderCode", link.OrderCode)
	return link, course, nil
}

// Verify enrolls the user once the gateway reports the checkout order as paid.
// The order must have been opened by Checkout for this user and course at the
// current price. Enrollment is insert-if-absent, so a replayed or concurrent
// verification cannot subscribe twice.
func (s *PaymentService) Verify(ctx context.Context, user *models.User, courseID string, in VerifyPaymentInput) error {
	course, err := s.course(ctx, user, courseID)
	if err != nil {
		return err
	}
	if in.OrderID == "" {
		return errPaymentFailed
	}

	order, err := s.Store.Payments.FindByOrderID(ctx, in.OrderID)
	if errors.Is(err, repository.ErrNotFound) {
		s.Logger.Warnw("verification of unknown order", "user", user.ID, "order", in.OrderID)
		return errPaymentFailed
	}
	if err != nil {
		return internal(err)
	}
	if order.UserID != user.ID || order.CourseID != course.ID || order.Amount < price(course) {
		s.Logger.Warnw("order does not match enrollment", "user", user.ID, "course", course.ID, "order", in.OrderID)
		return errPaymentFailed
	}

	if !order.IsPaid() {
		if err := s.confirm(ctx, order); err != nil {
			return err
		}
	}

	// progress first: a failure here leaves the user unenrolled and the call retryable
	if err := s.Store.Progress.Ensure(ctx, user.ID, course.ID); err != nil {
		return internal(err)
	}
	added, err := s.Store.Users.AddSubscription(ctx, user.ID, course.ID)
	if err != nil {
		return internal(err)
	}
	if !added {
		return newError(KindConflict, "You already have this course")
	}

	s.Logger.Infow("course enrolled", "user", user.ID, "course", course.ID, "order", in.OrderID)
	s.publish(ctx, events.Event{Type: events.CourseEnrolled, UserID: user.ID, CourseID: course.ID, OrderID: in.OrderID})
	return nil
}

// confirm asks the gateway whether the order is settled in full and marks it paid.
func (s *PaymentService) confirm(ctx context.Context, order *models.Payment) error {
	info, err := s.Gateway.PaymentStatus(ctx, order.OrderID)
	if errors.Is(err, payment.ErrUnknownOrder) {
		return errPaymentFailed
	}
	if err != nil {
		return internal(err)
	}
	if info.Status != payment.StatusPaid || info.Amount != order.Amount || info.AmountPaid < order.Amount {
		s.Logger.Infow("order not paid", "order", order.OrderID, "status", info.Status, "amountPaid", info.AmountPaid)
		return errPaymentFailed
	}
	if _, err := s.Store.Payments.MarkPaid(ctx, order.OrderID, info.Reference); err != nil {
		return internal(err)
	}
	return nil
}

// CreatePaymentLink opens an order for an arbitrary amount.
func (s *PaymentService) CreatePaymentLink(ctx context.Context, amount int64, description string) (*payment.CheckoutLink, error) {
	link, err := s.Gateway.CreatePaymentLink(ctx, payment.Order{
		Amount:      amount,
		Description: description,
		ReturnURL:   s.frontendURL("/success"),
		CancelURL:   s.frontendURL("/cancel"),
	})
	if err != nil {
		return nil, internal(err)
	}
	return link, nil
}

// Webhook accepts a gateway notification. Signatures are only enforced when
// PAYMENT_WEBHOOK_VERIFY is on.
func (s *PaymentService) Webhook(body []byte) error {
	s.Logger.Infow("payment webhook", "payload", string(body))
	if s.Cfg.PaymentWebhookVerify && !s.Gateway.VerifyWebhook(body) {
		return newError(KindValidation, "Invalid webhook signature")
	}
	return nil
}

func price(course *models.Course) int64 {
	return int64(math.Round(course.Price))
}
