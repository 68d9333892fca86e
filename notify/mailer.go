// Package notify sends transactional email.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultBrevoURL = "https://api.brevo.com/v3"

type Message struct {
	ToEmail string
	ToName  string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type Sender struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type recipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoEmail struct {
	Sender      Sender      `json:"sender"`
	To          []recipient `json:"to"`
	Subject     string      `json:"subject"`
	HTMLContent string      `json:"htmlContent"`
}

// BrevoMailer delivers mail through Brevo's transactional email API.
type BrevoMailer struct {
	client *resty.Client
	sender Sender
}

func NewBrevoMailer(baseURL, apiKey string, sender Sender) *BrevoMailer {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetHeader("accept", "application/json").
		SetHeader("content-type", "application/json").
		SetHeader("api-key", apiKey)
	return &BrevoMailer{client: client, sender: sender}
}

func (m *BrevoMailer) Send(ctx context.Context, msg Message) error {
	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(brevoEmail{
			Sender:      m.sender,
			To:          []recipient{{Email: msg.ToEmail, Name: msg.ToName}},
			Subject:     msg.Subject,
			HTMLContent: msg.HTML,
		}).
		Post("/smtp/email")
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if resp.StatusCode() != http.StatusCreated {
		return fmt.Errorf("send email: brevo responded %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// LogMailer only logs messages. Used when no email provider is configured.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) Send(ctx context.Context, msg Message) error {
	m.Logger.InfoContext(ctx, "email not sent, no provider configured",
		"to", msg.ToEmail, "subject", msg.Subject)
	return nil
}
