package models

import (
	"time"

	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// Payment is a gateway order opened at checkout for one user and course.
// Reference is the gateway's transaction reference once the order is paid.
type Payment struct {
	ID        string        `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	OrderID   string        `gorm:"size:64;uniqueIndex;not null" bson:"orderId" json:"orderId"`
	OrderCode int64         `bson:"orderCode" json:"orderCode"`
	UserID    string        `gorm:"size:36;index" bson:"user" json:"user"`
	CourseID  string        `gorm:"size:36;index" bson:"course" json:"course"`
	Amount    int64         `bson:"amount" json:"amount"`
	Status    PaymentStatus `gorm:"size:16;not null;default:pending" bson:"status" json:"status"`
	Reference string        `gorm:"size:128" bson:"reference,omitempty" json:"reference,omitempty"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
	PaidAt    *time.Time    `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.Status == "" {
		p.Status = PaymentPending
	}
	return nil
}

func (p *Payment) IsPaid() bool {
	return p.Status == PaymentPaid
}
