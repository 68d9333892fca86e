package handlers

import (
	"errors"
	"io"
	"net/http"

	"yumspot-api/payment"

	"github.com/gin-gonic/gin"
)

// maxWebhookBody bounds the webhook payload read into memory.
const maxWebhookBody = 65536

// PaymentSheet prepares a card payment for the whole cart
func (s *Services) PaymentSheet(c *gin.Context) {
	if s.Gateway == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Payments are not configured"})
		return
	}
	var req payment.SheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sheet, err := s.Gateway.CreatePaymentSheet(c.Request.Context(), req)
	switch {
	case errors.Is(err, payment.ErrEmptyCart), errors.Is(err, payment.ErrInvalidAmounts):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, payment.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Payments are not configured"})
		return
	case err != nil:
		serverError(c, err, "Failed to create payment sheet")
		return
	}
	c.JSON(http.StatusOK, sheet)
}

// StripeWebhook receives payment provider events
func (s *Services) StripeWebhook(c *gin.Context) {
	if s.Webhook == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Webhook is not configured"})
		return
	}
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	outcome, err := s.Webhook.Handle(c.Request.Context(), payload, c.GetHeader(payment.SignatureHeader))
	switch {
	case errors.Is(err, payment.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	case errors.Is(err, payment.ErrInvalidPayload):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	case err != nil:
		serverError(c, err, "Failed to process webhook")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "outcome": outcome})
}
