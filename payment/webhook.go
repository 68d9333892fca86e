// Package payment verifies provider webhooks, records payments and prepares
// Stripe payment sheets.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"yumspot-api/notify"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"gorm.io/gorm"
)

const (
	SignatureHeader = "Stripe-Signature"

	eventChargeSucceeded = "charge.succeeded"
	defaultCurrency      = "vnd"
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidPayload   = errors.New("invalid payload")
)

// Outcome says what the webhook did with an event.
type Outcome string

const (
	Processed Outcome = "processed"
	Ignored   Outcome = "ignored"
	Duplicate Outcome = "duplicate"
)

// Charge is the part of a succeeded charge we act on.
type Charge struct {
	ID            string
	TransactionID string
	ReceiptURL    string
	Email         string
	Name          string
	Amount        float64
	Currency      string
	OrderIDs      []uint
}

type WebhookHandler struct {
	Secret string
	DB     *gorm.DB
	Events EventStore
	Mailer notify.Mailer
	Logger *slog.Logger
}

// Verify checks the signature header against the shared secret and decodes the event.
func (h *WebhookHandler) Verify(payload []byte, sigHeader string) (stripe.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, h.Secret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrNotSigned),
			errors.Is(err, webhook.ErrInvalidHeader),
			errors.Is(err, webhook.ErrNoValidSignature),
			errors.Is(err, webhook.ErrTooOld):
			return event, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		default:
			return event, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
	}
	return event, nil
}

// ParseCharge extracts the charge carried by a charge event.
func ParseCharge(event stripe.Event) (*Charge, error) {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, fmt.Errorf("%w: event has no data object", ErrInvalidPayload)
	}
	var ch stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	out := &Charge{
		ID:            ch.ID,
		TransactionID: ch.ID,
		ReceiptURL:    ch.ReceiptURL,
		Email:         ch.Metadata["email"],
		Name:          ch.Metadata["name"],
		Amount:        float64(ch.Amount) / 100,
		Currency:      string(ch.Currency),
		OrderIDs:      parseOrderIDs(ch.Metadata["order_ids"]),
	}
	if ch.PaymentIntent != nil && ch.PaymentIntent.ID != "" {
		out.TransactionID = ch.PaymentIntent.ID
	}
	if out.Currency == "" {
		out.Currency = defaultCurrency
	}
	return out, nil
}

func parseOrderIDs(s string) []uint {
	var ids []uint
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil || id == 0 {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids
}

// Handle verifies and processes one delivery of a webhook. Only succeeded
// charges have effects; each provider event is acted on at most once.
func (h *WebhookHandler) Handle(ctx context.Context, payload []byte, sigHeader string) (Outcome, error) {
	event, err := h.Verify(payload, sigHeader)
	if err != nil {
		return "", err
	}
	if string(event.Type) != eventChargeSucceeded {
		h.Logger.DebugContext(ctx, "webhook event ignored", "event_id", event.ID, "type", event.Type)
		return Ignored, nil
	}

	charge, err := ParseCharge(event)
	if err != nil {
		return "", err
	}

	claimed, err := h.Events.Claim(ctx, event.ID, string(event.Type), payload)
	if err != nil {
		return "", fmt.Errorf("claim event %s: %w", event.ID, err)
	}
	if !claimed {
		h.Logger.InfoContext(ctx, "webhook event already handled", "event_id", event.ID)
		return Duplicate, nil
	}

	if err := h.recordPayments(ctx, charge); err != nil {
		if relErr := h.Events.Release(ctx, event.ID); relErr != nil {
			h.Logger.ErrorContext(ctx, "failed to release webhook event", "event_id", event.ID, "error", relErr)
		}
		return "", err
	}

	if charge.Email != "" {
		h.sendConfirmation(ctx, charge)
	}
	return Processed, nil
}

func (h *WebhookHandler) recordPayments(ctx context.Context, charge *Charge) error {
	for _, orderID := range charge.OrderIDs {
		_, err := RecordPayment(h.DB.WithContext(ctx), orderID, StatusPaid)
		switch {
		case err == nil:
			h.Logger.InfoContext(ctx, "payment recorded from webhook", "order_id", orderID, "charge_id", charge.ID)
		case errors.Is(err, ErrAlreadyPaid), errors.Is(err, gorm.ErrRecordNotFound):
			h.Logger.WarnContext(ctx, "webhook payment not recorded", "order_id", orderID, "reason", err)
		default:
			return fmt.Errorf("record payment for order %d: %w", orderID, err)
		}
	}
	return nil
}

// sendConfirmation is best effort: failures are logged, never returned.
func (h *WebhookHandler) sendConfirmation(ctx context.Context, charge *Charge) {
	msg, err := notify.PaymentConfirmation(charge.Email, notify.PaymentReceipt{
		Name:          charge.Name,
		Amount:        charge.Amount,
		Currency:      charge.Currency,
		TransactionID: charge.TransactionID,
		ReceiptURL:    charge.ReceiptURL,
	})
	if err == nil {
		err = h.Mailer.Send(ctx, msg)
	}
	if err != nil {
		h.Logger.ErrorContext(ctx, "payment confirmation email failed", "to", charge.Email, "error", err)
		return
	}
	h.Logger.InfoContext(ctx, "payment confirmation email sent", "to", charge.Email, "transaction_id", charge.TransactionID)
}
