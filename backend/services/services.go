// Package services holds the platform's use cases. Handlers translate HTTP into calls
// here and map the returned *Error kinds back to statuses.
package services

import (
	"context"

	"go.uber.org/zap"

	"elearning/backend/config"
	"elearning/backend/events"
	"elearning/backend/mailer"
	"elearning/backend/media"
	"elearning/backend/payment"
	"elearning/backend/repository"
)

type Deps struct {
	Store   *repository.Store
	Cfg     *config.Config
	Mailer  mailer.Mailer
	Events  events.Publisher
	Storage media.Storage
	Gateway payment.Gateway
	Logger  *zap.SugaredLogger
}

type Services struct {
	Users    *UserService
	Courses  *CourseService
	Progress *ProgressService
	Payments *PaymentService
	Admin    *AdminService
}

func New(d Deps) *Services {
	return &Services{
		Users:    &UserService{d},
		Courses:  &CourseService{d},
		Progress: &ProgressService{d},
		Payments: &PaymentService{d},
		Admin:    &AdminService{d},
	}
}

// publish never fails the caller; a lost event is logged.
func (d Deps) publish(ctx context.Context, ev events.Event) {
	if d.Events == nil {
		return
	}
	if err := d.Events.Publish(ctx, ev); err != nil {
		d.Logger.Errorw("publish event failed", "type", ev.Type, "error", err)
	}
}

func (d Deps) removeMedia(ctx context.Context, refs ...string) {
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if err := d.Storage.Delete(ctx, ref); err != nil {
			d.Logger.Warnw("delete media failed", "ref", ref, "error", err)
		}
	}
}
