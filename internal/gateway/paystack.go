// Package gateway wraps the third-party payment processor behind
// domain.PaymentGateway. Amounts cross the wire in subunits (kobo).
package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/go-resty/resty/v2"

	"learnhub-backend/internal/domain"
)

type paystackGateway struct {
	client      *resty.Client
	secretKey   string
	callbackURL string
}

// NewPaystackGateway builds the adapter. callbackURL is where the checkout
// page sends the browser back after payment; empty falls back to the
// dashboard default.
func NewPaystackGateway(baseURL, secretKey, callbackURL string) domain.PaymentGateway {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetAuthToken(secretKey).
		SetHeader("Content-Type", "application/json")

	return &paystackGateway{client: client, secretKey: secretKey, callbackURL: callbackURL}
}

type initializeRequest struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"` // kobo
	Reference   string            `json:"reference"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

func (g *paystackGateway) InitializeTransaction(ctx context.Context, email string, amount float64, reference string, metadata map[string]string) (*domain.CheckoutSession, error) {
	var out initializeResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(initializeRequest{
			Email:       email,
			Amount:      toSubunits(amount),
			Reference:   reference,
			CallbackURL: g.callbackURL,
			Metadata:    metadata,
		}).
		SetResult(&out).
		Post("/transaction/initialize")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	if resp.IsError() || !out.Status {
		return nil, fmt.Errorf("%w: initialize returned %s", domain.ErrGatewayUnavailable, resp.Status())
	}

	return &domain.CheckoutSession{
		Reference:        out.Data.Reference,
		AuthorizationURL: out.Data.AuthorizationURL,
		AccessCode:       out.Data.AccessCode,
	}, nil
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Reference string     `json:"reference"`
		Status    string     `json:"status"`
		Amount    int64      `json:"amount"` // kobo
		Channel   string     `json:"channel"`
		PaidAt    *time.Time `json:"paid_at"`
	} `json:"data"`
}

func (g *paystackGateway) VerifyTransaction(ctx context.Context, reference string) (*domain.GatewayTransaction, error) {
	var out verifyResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/transaction/verify/" + reference)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	if resp.StatusCode() == 404 {
		return nil, domain.ErrTransactionNotFound
	}
	if resp.IsError() || !out.Status {
		return nil, fmt.Errorf("%w: verify returned %s", domain.ErrGatewayUnavailable, resp.Status())
	}

	return &domain.GatewayTransaction{
		Reference: out.Data.Reference,
		Outcome:   mapOutcome(out.Data.Status),
		Amount:    fromSubunits(out.Data.Amount),
		Channel:   out.Data.Channel,
		PaidAt:    out.Data.PaidAt,
	}, nil
}

// ValidateSignature checks the webhook HMAC-SHA512 of the raw body.
func (g *paystackGateway) ValidateSignature(signature string, body []byte) bool {
	mac := hmac.New(sha512.New, []byte(g.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func mapOutcome(status string) domain.Outcome {
	switch status {
	case "success":
		return domain.OutcomeSuccess
	case "pending", "processing", "ongoing", "queued":
		return domain.OutcomePending
	default: // failed, abandoned, reversed
		return domain.OutcomeFailed
	}
}

func toSubunits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromSubunits(amount int64) float64 {
	return float64(amount) / 100
}
