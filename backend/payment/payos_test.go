package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPayOS(url string, opts ...PayOSOption) *PayOS {
	cfg := PayOSConfig{ClientID: "client", APIKey: "key", ChecksumKey: "checksum", BaseURL: url}
	opts = append([]PayOSOption{
		WithOrderCodes(func() (int64, error) { return 4242, nil }),
		WithRetryMaxElapsed(2 * time.Second),
	}, opts...)
	return NewPayOS(cfg, zap.NewNop().Sugar(), opts...)
}

func TestCreatePaymentLink(t *testing.T) {
	var got createRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/payment-requests", r.URL.Path)
		assert.Equal(t, "client", r.Header.Get("x-client-id"))
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"code":"00","desc":"success","data":{"paymentLinkId":"pl_1","orderCode":4242,"amount":100,"description":"Go course","checkoutUrl":"https://pay.payos.vn/web/pl_1","status":"PENDING"}}`))
	}))
	defer srv.Close()

	p := newTestPayOS(srv.URL)
	link, err := p.CreatePaymentLink(context.Background(), Order{
		Amount:      100,
		Description: "A very long course description that overflows",
		ReturnURL:   "http://front/success",
		CancelURL:   "http://front/cancel",
	})
	require.NoError(t, err)

	assert.Equal(t, "pl_1", link.OrderID)
	assert.Equal(t, "https://pay.payos.vn/web/pl_1", link.CheckoutURL)
	assert.EqualValues(t, 4242, got.OrderCode)
	assert.Len(t, []rune(got.Description), MaxDescriptionLen)

	want := p.hmac("amount=100&cancelUrl=http://front/cancel&description=" + got.Description +
		"&orderCode=4242&returnUrl=http://front/success")
	assert.Equal(t, want, got.Signature)
}

func TestCreatePaymentLinkRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"code":"00","data":{"paymentLinkId":"pl_2","orderCode":4242,"amount":5,"checkoutUrl":"u"}}`))
	}))
	defer srv.Close()

	link, err := newTestPayOS(srv.URL).CreatePaymentLink(context.Background(), Order{Amount: 5, Description: "x"})
	require.NoError(t, err)
	assert.Equal(t, "pl_2", link.OrderID)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestCreatePaymentLinkClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestPayOS(srv.URL).CreatePaymentLink(context.Background(), Order{Amount: 5, Description: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGateway)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestCreatePaymentLinkRejectedByGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"231","desc":"order exists","data":null}`))
	}))
	defer srv.Close()

	_, err := newTestPayOS(srv.URL).CreatePaymentLink(context.Background(), Order{Amount: 5, Description: "x"})
	assert.ErrorIs(t, err, ErrGateway)
}

func TestPaymentStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		switch r.URL.Path {
		case "/v2/payment-requests/pl_1":
			_, _ = w.Write([]byte(`{"code":"00","desc":"success","data":{"id":"pl_1","orderCode":4242,"amount":100,"amountPaid":100,"status":"PAID","transactions":[{"reference":"FT123","amount":100}]}}`))
		case "/v2/payment-requests/pl_2":
			_, _ = w.Write([]byte(`{"code":"00","desc":"success","data":{"id":"pl_2","orderCode":4243,"amount":100,"amountPaid":0,"status":"PENDING","transactions":[]}}`))
		default:
			_, _ = w.Write([]byte(`{"code":"101","desc":"payment link not found","data":null}`))
		}
	}))
	defer srv.Close()
	p := newTestPayOS(srv.URL)

	info, err := p.PaymentStatus(context.Background(), "pl_1")
	require.NoError(t, err)
	assert.Equal(t, PaymentInfo{OrderID: "pl_1", OrderCode: 4242, Amount: 100, AmountPaid: 100, Status: StatusPaid, Reference: "FT123"}, *info)

	info, err = p.PaymentStatus(context.Background(), "pl_2")
	require.NoError(t, err)
	assert.Equal(t, "PENDING", info.Status)
	assert.Empty(t, info.Reference)

	_, err = p.PaymentStatus(context.Background(), "pl_missing")
	assert.ErrorIs(t, err, ErrUnknownOrder)

	_, err = p.PaymentStatus(context.Background(), "../pl_1")
	assert.ErrorIs(t, err, ErrUnknownOrder)
}

func TestPaymentStatusClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestPayOS(srv.URL).PaymentStatus(context.Background(), "pl_1")
	assert.ErrorIs(t, err, ErrUnknownOrder)
}

func TestVerifyWebhook(t *testing.T) {
	p := newTestPayOS("http://unused")
	data := map[string]interface{}{
		"orderCode":   json.Number("123"),
		"amount":      json.Number("3000"),
		"description": "VQRIO123",
		"reference":   nil,
	}
	assert.Equal(t, "amount=3000&description=VQRIO123&orderCode=123&reference=", SortedQuery(data))

	body, err := json.Marshal(map[string]interface{}{
		"code":      "00",
		"data":      data,
		"signature": p.hmac(SortedQuery(data)),
	})
	require.NoError(t, err)
	assert.True(t, p.VerifyWebhook(body))

	tampered, err := json.Marshal(map[string]interface{}{
		"data":      map[string]interface{}{"orderCode": 124, "amount": 3000, "description": "VQRIO123", "reference": nil},
		"signature": p.hmac(SortedQuery(data)),
	})
	require.NoError(t, err)
	assert.False(t, p.VerifyWebhook(tampered))
	assert.False(t, p.VerifyWebhook([]byte("not json")))
}
