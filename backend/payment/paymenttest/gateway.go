// Package paymenttest provides an in-memory payment.Gateway.
package paymenttest

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"elearning/backend/payment"
)

// ValidSignature is the only webhook signature Gateway accepts.
const ValidSignature = "valid-signature"

// Gateway keeps its orders in memory. Orders stay PENDING until Pay is called.
type Gateway struct {
	mu     sync.Mutex
	next   int64
	Orders []payment.Order
	Err    error

	links map[string]*payment.CheckoutLink
	paid  map[string]int64
}

func (g *Gateway) CreatePaymentLink(_ context.Context, order payment.Order) (*payment.CheckoutLink, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	g.next++
	if order.OrderCode == 0 {
		order.OrderCode = g.next
	}
	order.Description = payment.TrimDescription(order.Description)
	g.Orders = append(g.Orders, order)
	link := &payment.CheckoutLink{
		OrderID:     fmt.Sprintf("order_%d", order.OrderCode),
		OrderCode:   order.OrderCode,
		Amount:      order.Amount,
		Description: order.Description,
		CheckoutURL: fmt.Sprintf("https://pay.test/web/%d", order.OrderCode),
		Status:      "PENDING",
	}
	if g.links == nil {
		g.links = make(map[string]*payment.CheckoutLink)
	}
	g.links[link.OrderID] = link
	return link, nil
}

// Pay settles the whole amount of an order. It reports false for unknown orders.
func (g *Gateway) Pay(orderID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	link, ok := g.links[orderID]
	if !ok {
		return false
	}
	if g.paid == nil {
		g.paid = make(map[string]int64)
	}
	g.paid[orderID] = link.Amount
	return true
}

func (g *Gateway) PaymentStatus(_ context.Context, orderID string) (*payment.PaymentInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	link, ok := g.links[orderID]
	if !ok {
		return nil, payment.ErrUnknownOrder
	}
	info := &payment.PaymentInfo{
		OrderID:   link.OrderID,
		OrderCode: link.OrderCode,
		Amount:    link.Amount,
		Status:    "PENDING",
	}
	if amount, ok := g.paid[orderID]; ok {
		info.AmountPaid = amount
		info.Status = payment.StatusPaid
		info.Reference = fmt.Sprintf("ref_%d", link.OrderCode)
	}
	return info, nil
}

func (g *Gateway) VerifyWebhook(body []byte) bool {
	return bytes.Contains(body, []byte(ValidSignature))
}
