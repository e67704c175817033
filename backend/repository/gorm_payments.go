package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"elearning/backend/models"
)

type gormPayments struct {
	db *gorm.DB
}

func (r *gormPayments) Create(ctx context.Context, payment *models.Payment) error {
	payment.Status = models.PaymentPending
	return gormErr(r.db.WithContext(ctx).Create(payment).Error, "create payment")
}

func (r *gormPayments) FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&payment).Error; err != nil {
		return nil, gormErr(err, "find payment")
	}
	return &payment, nil
}

func (r *gormPayments) MarkPaid(ctx context.Context, orderID, reference string) (bool, error) {
	paidAt := time.Now()
	res := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("order_id = ? AND status = ?", orderID, models.PaymentPending).
		Updates(map[string]interface{}{
			"status":    models.PaymentPaid,
			"reference": reference,
			"paid_at":   paidAt,
		})
	if res.Error != nil {
		return false, gormErr(res.Error, "mark payment paid")
	}
	if res.RowsAffected == 1 {
		return true, nil
	}
	if _, err := r.FindByOrderID(ctx, orderID); err != nil {
		return false, err
	}
	return false, nil
}
