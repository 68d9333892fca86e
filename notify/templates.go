package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"
)

var paymentConfirmationTmpl = template.Must(template.New("payment").Parse(`<html>
  <body>
    <p>Hello {{.Name}},</p>
    <p>Thank you, your payment was successful!</p>
    <p><strong>Amount:</strong> {{.Amount}} {{.Currency}}</p>
    <p><strong>Transaction ID:</strong> {{.TransactionID}}</p>
    {{if .ReceiptURL}}<p><a href="{{.ReceiptURL}}">View receipt</a></p>{{end}}
    <p>Best regards,</p>
    <p>The Yumspot team</p>
  </body>
</html>`))

// PaymentReceipt is what the payment confirmation email shows.
type PaymentReceipt struct {
	Name          string
	Amount        float64
	Currency      string
	TransactionID string
	ReceiptURL    string
}

const PaymentConfirmationSubject = "Payment confirmation"

// PaymentConfirmation renders the confirmation email for a successful charge.
func PaymentConfirmation(toEmail string, r PaymentReceipt) (Message, error) {
	var body bytes.Buffer
	err := paymentConfirmationTmpl.Execute(&body, struct {
		Name          string
		Amount        string
		Currency      string
		TransactionID string
		ReceiptURL    string
	}{
		Name:          r.Name,
		Amount:        strconv.FormatFloat(r.Amount, 'f', -1, 64),
		Currency:      strings.ToUpper(r.Currency),
		TransactionID: r.TransactionID,
		ReceiptURL:    r.ReceiptURL,
	})
	if err != nil {
		return Message{}, fmt.Errorf("render payment confirmation: %w", err)
	}
	return Message{
		ToEmail: toEmail,
		ToName:  r.Name,
		Subject: PaymentConfirmationSubject,
		HTML:    body.String(),
	}, nil
}
