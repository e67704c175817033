// Package payment talks to the checkout gateway.
package payment

import (
	"context"
	"errors"
)

var (
	ErrGateway = errors.New("payment gateway error")
	// ErrUnknownOrder is returned when the gateway has no order under the given id.
	ErrUnknownOrder = errors.New("payment order not found")
)

// StatusPaid is the gateway status of a fully paid order.
const StatusPaid = "PAID"

// Order is a checkout request. OrderCode is filled by the gateway client when zero.
type Order struct {
	OrderCode   int64
	Amount      int64
	Description string
	ReturnURL   string
	CancelURL   string
}

// CheckoutLink is the created order as returned to the client.
type CheckoutLink struct {
	OrderID     string `json:"orderId"`
	OrderCode   int64  `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	CheckoutURL string `json:"checkoutUrl"`
	Status      string `json:"status,omitempty"`
}

// PaymentInfo is the gateway's view of an order.
type PaymentInfo struct {
	OrderID    string
	OrderCode  int64
	Amount     int64
	AmountPaid int64
	Status     string
	// Reference identifies the transaction that settled the order.
	Reference string
}

type Gateway interface {
	CreatePaymentLink(ctx context.Context, order Order) (*CheckoutLink, error)
	// PaymentStatus looks the order up on the gateway.
	PaymentStatus(ctx context.Context, orderID string) (*PaymentInfo, error)
	// VerifyWebhook checks the signature of a raw webhook body.
	VerifyWebhook(body []byte) bool
}

// MaxDescriptionLen is the gateway's limit on order descriptions.
const MaxDescriptionLen = 25

// TrimDescription cuts s to MaxDescriptionLen runes.
func TrimDescription(s string) string {
	r := []rune(s)
	if len(r) > MaxDescriptionLen {
		return string(r[:MaxDescriptionLen])
	}
	return s
}
