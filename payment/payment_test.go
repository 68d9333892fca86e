package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"yumspot-api/config"
	"yumspot-api/models"
	"yumspot-api/notify"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
	"gorm.io/gorm"
)

const testSecret = "whsec_test"

type fakeMailer struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seedOrder stores an unpaid order of two coffees at 25000.
func seedOrder(t *testing.T, db *gorm.DB) models.Order {
	t.Helper()
	user := models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x", Role: models.RoleCustomer}
	require.NoError(t, db.Create(&user).Error)
	restaurant := models.Restaurant{Base: models.Base{Active: true}, Name: "Pho 24", UserID: user.ID}
	require.NoError(t, db.Create(&restaurant).Error)
	category := models.Category{Base: models.Base{Active: true}, Name: "Drinks"}
	require.NoError(t, db.Create(&category).Error)
	menu := models.Menu{Base: models.Base{Active: true}, RestaurantID: restaurant.ID, CategoryID: category.ID}
	require.NoError(t, db.Create(&menu).Error)
	food := models.Food{Base: models.Base{Active: true}, Name: "Coffee", Price: 25000, MenuID: menu.ID, CategoryID: category.ID}
	require.NoError(t, db.Create(&food).Error)
	order := models.Order{Base: models.Base{Active: true}, UserID: user.ID, RestaurantID: restaurant.ID}
	require.NoError(t, db.Create(&order).Error)
	detail := models.OrderDetails{Base: models.Base{Active: true}, OrderID: order.ID, FoodID: food.ID, Quantity: 2}
	require.NoError(t, db.Create(&detail).Error)
	return order
}

func newHandler(t *testing.T) (*WebhookHandler, *fakeMailer) {
	t.Helper()
	db, err := config.Open(":memory:")
	require.NoError(t, err)
	mailer := &fakeMailer{}
	return &WebhookHandler{
		Secret: testSecret,
		DB:     db,
		Events: DBEventStore{DB: db},
		Mailer: mailer,
		Logger: discardLogger(),
	}, mailer
}

func chargeEvent(id, eventType string, metadata map[string]string) []byte {
	payload, _ := json.Marshal(map[string]any{
		"id":     id,
		"object": "event",
		"type":   eventType,
		"data": map[string]any{
			"object": map[string]any{
				"id":             "ch_1",
				"object":         "charge",
				"amount":         5000000,
				"currency":       "vnd",
				"receipt_url":    "https://pay.stripe.com/receipts/ch_1",
				"payment_intent": "pi_1",
				"metadata":       metadata,
			},
		},
	})
	return payload
}

func sign(payload []byte) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testSecret,
		Timestamp: time.Now(),
	}).Header
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	h, mailer := newHandler(t)
	payload := chargeEvent("evt_1", "charge.succeeded", map[string]string{"email": "a@example.com"})

	_, err := h.Handle(context.Background(), payload, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = h.Handle(context.Background(), payload, "")
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Empty(t, mailer.sent)
}

func TestWebhookRejectsMalformedPayload(t *testing.T) {
	h, _ := newHandler(t)
	payload := []byte(`{"id": "evt_1", "type": `)

	_, err := h.Handle(context.Background(), payload, sign(payload))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	h, mailer := newHandler(t)
	payload := chargeEvent("evt_2", "charge.refunded", map[string]string{"email": "a@example.com"})

	outcome, err := h.Handle(context.Background(), payload, sign(payload))
	require.NoError(t, err)
	assert.Equal(t, Ignored, outcome)
	assert.Empty(t, mailer.sent)
}

func TestWebhookChargeSucceeded(t *testing.T) {
	h, mailer := newHandler(t)
	order := seedOrder(t, h.DB)
	payload := chargeEvent("evt_3", "charge.succeeded", map[string]string{
		"email":     "alice@example.com",
		"name":      "Alice",
		"order_ids": fmt.Sprintf("999, %d", order.ID),
	})

	outcome, err := h.Handle(context.Background(), payload, sign(payload))
	require.NoError(t, err)
	assert.Equal(t, Processed, outcome)

	var p models.Payment
	require.NoError(t, h.DB.Where("order_id = ?", order.ID).First(&p).Error)
	assert.Equal(t, StatusPaid, p.Status)
	assert.Equal(t, float64(50000), p.Amount)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "alice@example.com", mailer.sent[0].ToEmail)
	assert.Equal(t, notify.PaymentConfirmationSubject, mailer.sent[0].Subject)
	assert.Contains(t, mailer.sent[0].HTML, "pi_1")
	assert.Contains(t, mailer.sent[0].HTML, "https://pay.stripe.com/receipts/ch_1")
}

func TestWebhookRedeliveryHasNoSideEffects(t *testing.T) {
	h, mailer := newHandler(t)
	payload := chargeEvent("evt_4", "charge.succeeded", map[string]string{"email": "alice@example.com"})

	outcome, err := h.Handle(context.Background(), payload, sign(payload))
	require.NoError(t, err)
	assert.Equal(t, Processed, outcome)

	outcome, err = h.Handle(context.Background(), payload, sign(payload))
	require.NoError(t, err)
	assert.Equal(t, Duplicate, outcome)
	assert.Len(t, mailer.sent, 1)
}

func TestWebhookWithoutEmailSendsNothing(t *testing.T) {
	h, mailer := newHandler(t)
	payload := chargeEvent("evt_5", "charge.succeeded", map[string]string{})

	outcome, err := h.Handle(context.Background(), payload, sign(payload))
	require.NoError(t, err)
	assert.Equal(t, Processed, outcome)
	assert.Empty(t, mailer.sent)
}

func TestWebhookMailerFailureIsNotAnError(t *testing.T) {
	h, mailer := newHandler(t)
	mailer.err = errors.New("smtp down")
	payload := chargeEvent("evt_6", "charge.succeeded", map[string]string{"email": "alice@example.com"})

	outcome, err := h.Handle(context.Background(), payload, sign(payload))
	require.NoError(t, err)
	assert.Equal(t, Processed, outcome)
}

func TestParseChargeDefaults(t *testing.T) {
	h, _ := newHandler(t)
	payload, _ := json.Marshal(map[string]any{
		"id":   "evt_7",
		"type": "charge.succeeded",
		"data": map[string]any{"object": map[string]any{"id": "ch_9", "object": "charge", "amount": 1999}},
	})
	event, err := h.Verify(payload, sign(payload))
	require.NoError(t, err)

	charge, err := ParseCharge(event)
	require.NoError(t, err)
	assert.Equal(t, "ch_9", charge.TransactionID)
	assert.Equal(t, "vnd", charge.Currency)
	assert.InDelta(t, 19.99, charge.Amount, 1e-9)
	assert.Empty(t, charge.OrderIDs)
}

func TestRecordPayment(t *testing.T) {
	db, err := config.Open(":memory:")
	require.NoError(t, err)
	order := seedOrder(t, db)

	total, err := OrderTotal(db, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), total)

	p, err := RecordPayment(db, order.ID, "success")
	require.NoError(t, err)
	assert.Equal(t, float64(50000), p.Amount)
	assert.True(t, p.Active)

	_, err = RecordPayment(db, order.ID, "success")
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	_, err = RecordPayment(db, order.ID+100, "success")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRedisEventStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	store := NewRedisEventStore(rdb, time.Hour)
	ctx := context.Background()

	claimed, err := store.Claim(ctx, "evt_1", "charge.succeeded", nil)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = store.Claim(ctx, "evt_1", "charge.succeeded", nil)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Equal(t, time.Hour, mr.TTL("yumspot:webhook:evt_1"))

	require.NoError(t, store.Release(ctx, "evt_1"))
	claimed, err = store.Claim(ctx, "evt_1", "charge.succeeded", nil)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestDBEventStore(t *testing.T) {
	db, err := config.Open(":memory:")
	require.NoError(t, err)
	store := DBEventStore{DB: db}
	ctx := context.Background()

	claimed, err := store.Claim(ctx, "evt_1", "charge.succeeded", []byte(`{"id":"evt_1"}`))
	require.NoError(t, err)
	assert.True(t, claimed)
	claimed, err = store.Claim(ctx, "evt_1", "charge.succeeded", []byte(`{"id":"evt_1"}`))
	require.NoError(t, err)
	assert.False(t, claimed)

	require.NoError(t, store.Release(ctx, "evt_1"))
	claimed, err = store.Claim(ctx, "evt_1", "charge.succeeded", []byte(`{"id":"evt_1"}`))
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestBuildIntent(t *testing.T) {
	_, err := BuildIntent(SheetRequest{})
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = BuildIntent(SheetRequest{Cart: []CartOrder{{OrderID: "1", OrderTotal: -5}}})
	assert.ErrorIs(t, err, ErrInvalidAmounts)

	in, err := BuildIntent(SheetRequest{Cart: []CartOrder{
		{
			OrderID:    "12",
			OrderTotal: 100000,
			Shipping:   Shipping{Price: 15000, Method: "express"},
			Customer:   Customer{Name: "Alice", EmailPhone: "alice@example.com"},
		},
		{OrderID: "13", OrderTotal: 50000, Shipping: Shipping{Price: 0, Method: "pickup"}},
	}})
	require.NoError(t, err)
	assert.Equal(t, int64(165000), in.Amount)
	assert.Equal(t, "vnd", in.Currency)
	assert.Equal(t, map[string]string{
		"order_ids":        "12,13",
		"shipping_methods": "express,pickup",
		"email":            "alice@example.com",
		"name":             "Alice",
	}, in.Metadata())
}
