package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Mpesa starts an STK push through the payment backend at baseURL.
type Mpesa struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewMpesa(baseURL string, client *http.Client, logger *zap.Logger) *Mpesa {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mpesa{baseURL: strings.TrimRight(baseURL, "/"), client: client, logger: logger}
}

type stkRequest struct {
	PhoneNumber      string `json:"phoneNumber"`
	Amount           int64  `json:"amount"`
	AccountReference string `json:"accountReference"`
	TransactionDesc  string `json:"transactionDesc"`
}

type stkResponse struct {
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ErrorMessage        string `json:"errorMessage"`
}

// Charge requests payment of the amount rounded up to whole shillings.
func (m *Mpesa) Charge(ctx context.Context, c Charge) (*Result, error) {
	body, err := json.Marshal(stkRequest{
		PhoneNumber:      MSISDN(c.Phone),
		Amount:           c.Amount.MajorUnitsCeil(),
		AccountReference: c.OrderNumber,
		TransactionDesc:  "Payment for order " + c.OrderNumber,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/api/checkout", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mpesa request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("mpesa read: %w", err)
	}
	var out stkResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		m.logger.Warn("mpesa: undecodable response", zap.Int("status", resp.StatusCode), zap.ByteString("body", raw))
		return nil, fmt.Errorf("mpesa: unexpected response (HTTP %d)", resp.StatusCode)
	}
	if out.ResponseCode != "0" {
		desc := out.ResponseDescription
		if desc == "" {
			desc = out.ErrorMessage
		}
		m.logger.Info("mpesa: declined", zap.String("order", c.OrderNumber), zap.String("code", out.ResponseCode), zap.String("description", desc))
		return nil, &DeclinedError{Code: out.ResponseCode, Description: desc}
	}
	m.logger.Info("mpesa: push sent", zap.String("order", c.OrderNumber), zap.String("checkout_request_id", out.CheckoutRequestID))
	msg := out.CustomerMessage
	if msg == "" {
		msg = "Check your phone to complete the M-Pesa payment"
	}
	return &Result{Status: StatusPushSent, Reference: out.CheckoutRequestID, Message: msg}, nil
}

// MSISDN rewrites a Kenyan phone number to the 254XXXXXXXXX form.
func MSISDN(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case strings.HasPrefix(digits, "0") && len(digits) == 10:
		return "254" + digits[1:]
	case len(digits) == 9 && (digits[0] == '7' || digits[0] == '1'):
		return "254" + digits
	}
	return digits
}
