package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"elearning/backend/models"
)

type mongoPayments struct {
	col *mongo.Collection
}

func (r *mongoPayments) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = models.NewID()
	}
	payment.Status = models.PaymentPending
	payment.CreatedAt = now()
	_, err := r.col.InsertOne(ctx, payment)
	return mongoErr(err, "create payment")
}

func (r *mongoPayments) FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.col.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&payment); err != nil {
		return nil, mongoErr(err, "find payment")
	}
	return &payment, nil
}

func (r *mongoPayments) MarkPaid(ctx context.Context, orderID, reference string) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"orderId": orderID, "status": models.PaymentPending},
		bson.M{"$set": bson.M{"status": models.PaymentPaid, "reference": reference, "paidAt": now()}},
	)
	if err != nil {
		return false, mongoErr(err, "mark payment paid")
	}
	if res.ModifiedCount == 1 {
		return true, nil
	}
	if _, err := r.FindByOrderID(ctx, orderID); err != nil {
		return false, err
	}
	return false, nil
}
