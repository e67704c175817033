package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"elearning/backend/utils"
)

type PayOSConfig struct {
	ClientID    string
	APIKey      string
	ChecksumKey string
	BaseURL     string
}

// PayOS is the HTTP client of the PayOS merchant API.
type PayOS struct {
	cfg       PayOSConfig
	http      *http.Client
	cb        *gobreaker.CircuitBreaker
	orderCode func() (int64, error)
	maxRetry  time.Duration
	log       *zap.SugaredLogger
}

type PayOSOption func(*PayOS)

func WithHTTPClient(c *http.Client) PayOSOption {
	return func(p *PayOS) { p.http = c }
}

// WithOrderCodes replaces the random order code generator.
func WithOrderCodes(next func() (int64, error)) PayOSOption {
	return func(p *PayOS) { p.orderCode = next }
}

func WithRetryMaxElapsed(d time.Duration) PayOSOption {
	return func(p *PayOS) { p.maxRetry = d }
}

func NewPayOS(cfg PayOSConfig, logger *zap.SugaredLogger, opts ...PayOSOption) *PayOS {
	p := &PayOS{
		cfg:       cfg,
		http:      &http.Client{Timeout: 15 * time.Second},
		orderCode: utils.GenerateOrderCode,
		maxRetry:  10 * time.Second,
		log:       logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "payos",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var apiErr *apiError
			return err == nil || errors.As(err, &apiErr)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Infow("circuit breaker state", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return p
}

type createRequest struct {
	OrderCode   int64  `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	CancelURL   string `json:"cancelUrl"`
	ReturnURL   string `json:"returnUrl"`
	Signature   string `json:"signature"`
}

type createResponse struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
	Data *struct {
		PaymentLinkID string `json:"paymentLinkId"`
		OrderCode     int64  `json:"orderCode"`
		Amount        int64  `json:"amount"`
		Description   string `json:"description"`
		CheckoutURL   string `json:"checkoutUrl"`
		Status        string `json:"status"`
	} `json:"data"`
}

// apiError is a rejection by the gateway. It is not retried and does not trip the breaker.
type apiError struct {
	Status int
	Code   string
	Desc   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("payos: status %d code %s: %s", e.Status, e.Code, e.Desc)
}

func (e *apiError) Unwrap() error { return ErrGateway }

func (p *PayOS) CreatePaymentLink(ctx context.Context, order Order) (*CheckoutLink, error) {
	if order.OrderCode == 0 {
		code, err := p.orderCode()
		if err != nil {
			return nil, errors.Wrap(err, "generate order code")
		}
		order.OrderCode = code
	}
	order.Description = TrimDescription(order.Description)

	body, err := json.Marshal(createRequest{
		OrderCode:   order.OrderCode,
		Amount:      order.Amount,
		Description: order.Description,
		CancelURL:   order.CancelURL,
		ReturnURL:   order.ReturnURL,
		Signature:   p.orderSignature(order),
	})
	if err != nil {
		return nil, err
	}

	data, err := p.call(ctx, http.MethodPost, "/v2/payment-requests", body)
	if err != nil {
		p.log.Errorw("create payment link failed", "orderCode", order.OrderCode, "error", err)
		return nil, err
	}

	var out createResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, "decode payos response")
	}
	if out.Code != "00" || out.Data == nil {
		return nil, &apiError{Status: http.StatusOK, Code: out.Code, Desc: out.Desc}
	}
	return &CheckoutLink{
		OrderID:     out.Data.PaymentLinkID,
		OrderCode:   out.Data.OrderCode,
		Amount:      out.Data.Amount,
		Description: out.Data.Description,
		CheckoutURL: out.Data.CheckoutURL,
		Status:      out.Data.Status,
	}, nil
}

type statusResponse struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
	Data *struct {
		ID           string `json:"id"`
		OrderCode    int64  `json:"orderCode"`
		Amount       int64  `json:"amount"`
		AmountPaid   int64  `json:"amountPaid"`
		Status       string `json:"status"`
		Transactions []struct {
			Reference string `json:"reference"`
			Amount    int64  `json:"amount"`
		} `json:"transactions"`
	} `json:"data"`
}

func (p *PayOS) PaymentStatus(ctx context.Context, orderID string) (*PaymentInfo, error) {
	if orderID == "" || strings.ContainsAny(orderID, "/?#") {
		return nil, ErrUnknownOrder
	}
	data, err := p.call(ctx, http.MethodGet, "/v2/payment-requests/"+orderID, nil)
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return nil, errors.Wrap(ErrUnknownOrder, apiErr.Error())
	}
	if err != nil {
		p.log.Errorw("payment status failed", "order", orderID, "error", err)
		return nil, err
	}

	var out statusResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, "decode payos response")
	}
	if out.Code != "00" || out.Data == nil {
		return nil, errors.Wrapf(ErrUnknownOrder, "payos: code %s: %s", out.Code, out.Desc)
	}
	info := &PaymentInfo{
		OrderID:    out.Data.ID,
		OrderCode:  out.Data.OrderCode,
		Amount:     out.Data.Amount,
		AmountPaid: out.Data.AmountPaid,
		Status:     out.Data.Status,
	}
	if n := len(out.Data.Transactions); n > 0 {
		info.Reference = out.Data.Transactions[n-1].Reference
	}
	return info, nil
}

// call sends one request through the circuit breaker.
func (p *PayOS) call(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	res, err := p.cb.Execute(func() (interface{}, error) {
		return p.doWithRetry(ctx, method, path, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, errors.Wrap(ErrGateway, err.Error())
	}
	if err != nil {
		return nil, err
	}
	return res.([]byte), nil
}

func (p *PayOS) doWithRetry(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var payload []byte
	operation := func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(p.cfg.BaseURL, "/")+path, reader)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-client-id", p.cfg.ClientID)
		req.Header.Set("x-api-key", p.cfg.APIKey)

		resp, err := p.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		// 5xx is retried, 4xx is the caller's fault
		if resp.StatusCode >= http.StatusInternalServerError {
			return errors.Errorf("payos: status %d", resp.StatusCode)
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return backoff.Permanent(&apiError{Status: resp.StatusCode, Desc: string(data)})
		}
		payload = data
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = p.maxRetry
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return payload, nil
}

// orderSignature signs the order fields in alphabetical key order.
func (p *PayOS) orderSignature(o Order) string {
	data := "amount=" + strconv.FormatInt(o.Amount, 10) +
		"&cancelUrl=" + o.CancelURL +
		"&description=" + o.Description +
		"&orderCode=" + strconv.FormatInt(o.OrderCode, 10) +
		"&returnUrl=" + o.ReturnURL
	return p.hmac(data)
}

func (p *PayOS) hmac(data string) string {
	mac := hmac.New(sha256.New, []byte(p.cfg.ChecksumKey))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

type webhookBody struct {
	Data      map[string]interface{} `json:"data"`
	Signature string                 `json:"signature"`
}

func (p *PayOS) VerifyWebhook(body []byte) bool {
	var wh webhookBody
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&wh); err != nil || wh.Data == nil || wh.Signature == "" {
		return false
	}
	return hmac.Equal([]byte(wh.Signature), []byte(p.hmac(SortedQuery(wh.Data))))
}

// SortedQuery renders data as k=v pairs joined by & in key order. Null becomes "".
func SortedQuery(data map[string]interface{}) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		switch v := data[k].(type) {
		case nil:
		case string:
			sb.WriteString(v)
		case json.Number:
			sb.WriteString(v.String())
		case bool:
			sb.WriteString(strconv.FormatBool(v))
		default:
			raw, _ := json.Marshal(v)
			sb.Write(raw)
		}
	}
	return sb.String()
}
