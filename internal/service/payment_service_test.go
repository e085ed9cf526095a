package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"
	"time"

	"marketplace-api/internal/dto"
	"marketplace-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const webhookSecret = "whsec_test"

func signPayload(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", at.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifySignature(t *testing.T) {
	now := time.Now()
	payload := []byte(`{"id":"evt_1"}`)

	tests := []struct {
		name    string
		payload []byte
		header  string
		secret  string
		wantErr error
	}{
		{"valid", payload, signPayload(payload, webhookSecret, now), webhookSecret, nil},
		{"slightly old but inside the window", payload, signPayload(payload, webhookSecret, now.Add(-4*time.Minute)), webhookSecret, nil},
		{"empty header", payload, "", webhookSecret, ErrBadSignature},
		{"empty secret", payload, signPayload(payload, webhookSecret, now), "", ErrBadSignature},
		{"wrong secret", payload, signPayload(payload, "whsec_other", now), webhookSecret, ErrBadSignature},
		{"tampered payload", []byte(`{"id":"evt_2"}`), signPayload(payload, webhookSecret, now), webhookSecret, ErrBadSignature},
		{"timestamp too old", payload, signPayload(payload, webhookSecret, now.Add(-6*time.Minute)), webhookSecret, ErrBadSignature},
		{"timestamp in the future", payload, signPayload(payload, webhookSecret, now.Add(6*time.Minute)), webhookSecret, ErrBadSignature},
		{"garbage timestamp", payload, "t=abc,v1=deadbeef", webhookSecret, ErrBadSignature},
		{"missing v1", payload, fmt.Sprintf("t=%d", now.Unix()), webhookSecret, ErrBadSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := VerifySignature(tt.payload, tt.header, tt.secret, now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

type paymentFixture struct {
	payments *fakePaymentRepo
	orders   *fakeOrderRepo
	events   *fakePublisher
	svc      *PaymentService
}

func newPaymentFixture() *paymentFixture {
	f := &paymentFixture{
		payments: newFakePaymentRepo(),
		orders:   newFakeOrderRepo(),
		events:   &fakePublisher{},
	}
	f.svc = NewPaymentService(f.payments, f.orders, f.events, webhookSecret)
	return f
}

func (f *paymentFixture) seedOrder(t *testing.T, customer primitive.ObjectID) *model.Order {
	t.Helper()
	ord := &model.Order{
		Customer:      customer,
		OrderStatus:   model.StatusPending,
		PaymentStatus: model.PaymentPending,
	}
	require.NoError(t, f.orders.Create(context.Background(), ord))
	return ord
}

func TestRecordAttempt(t *testing.T) {
	ctx := context.Background()

	t.Run("cod stays pending with the COD marker", func(t *testing.T) {
		f := newPaymentFixture()
		customer := primitive.NewObjectID()
		ord := f.seedOrder(t, customer)

		p, err := f.svc.RecordAttempt(ctx, customer, dto.CreatePaymentRequest{
			OrderID:       ord.ID.Hex(),
			Amount:        1500,
			PaymentMethod: "COD",
		})
		require.NoError(t, err)
		assert.Equal(t, "cod", p.Method)
		assert.Equal(t, model.PaymentPending, p.Status)
		assert.Equal(t, "COD", p.TransactionID)
	})

	t.Run("online goes processing with a transaction id", func(t *testing.T) {
		f := newPaymentFixture()
		customer := primitive.NewObjectID()
		ord := f.seedOrder(t, customer)

		p, err := f.svc.RecordAttempt(ctx, customer, dto.CreatePaymentRequest{
			OrderID:       ord.ID.Hex(),
			Amount:        1500,
			PaymentMethod: "card",
		})
		require.NoError(t, err)
		assert.Equal(t, "online", p.Method)
		assert.Equal(t, model.PaymentProcessing, p.Status)
		assert.True(t, strings.HasPrefix(p.TransactionID, "pi_"))
	})

	t.Run("only the order owner can pay", func(t *testing.T) {
		f := newPaymentFixture()
		ord := f.seedOrder(t, primitive.NewObjectID())

		_, err := f.svc.RecordAttempt(ctx, primitive.NewObjectID(), dto.CreatePaymentRequest{
			OrderID:       ord.ID.Hex(),
			Amount:        1500,
			PaymentMethod: "card",
		})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newPaymentFixture()
		_, err := f.svc.RecordAttempt(ctx, primitive.NewObjectID(), dto.CreatePaymentRequest{
			OrderID:       primitive.NewObjectID().Hex(),
			Amount:        10,
			PaymentMethod: "card",
		})
		assert.ErrorIs(t, err, ErrOrderNotFound)

		_, err = f.svc.RecordAttempt(ctx, primitive.NewObjectID(), dto.CreatePaymentRequest{
			OrderID:       "no-es-un-objectid",
			Amount:        10,
			PaymentMethod: "card",
		})
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestHandleWebhook(t *testing.T) {
	ctx := context.Background()

	// deja una orden con su intento de pago online ya registrado
	seed := func(t *testing.T, f *paymentFixture) (*model.Order, *model.Payment) {
		t.Helper()
		customer := primitive.NewObjectID()
		ord := f.seedOrder(t, customer)
		p, err := f.svc.RecordAttempt(ctx, customer, dto.CreatePaymentRequest{
			OrderID:       ord.ID.Hex(),
			Amount:        1500,
			PaymentMethod: "upi",
		})
		require.NoError(t, err)
		return ord, p
	}

	event := func(id, typ, txn string) []byte {
		return []byte(fmt.Sprintf(
			`{"id":%q,"type":%q,"data":{"object":{"transactionId":%q}}}`, id, typ, txn))
	}

	t.Run("succeeded marks payment and order paid and notifies", func(t *testing.T) {
		f := newPaymentFixture()
		ord, p := seed(t, f)

		payload := event("evt_1", "payment_intent.succeeded", p.TransactionID)
		err := f.svc.HandleWebhook(ctx, payload, signPayload(payload, webhookSecret, time.Now()))
		require.NoError(t, err)

		assert.Equal(t, model.PaymentPaid, f.payments.payments[p.TransactionID].Status)
		got, err := f.orders.FindByID(ctx, ord.ID)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentPaid, got.PaymentStatus)

		require.Len(t, f.events.events, 1)
		assert.Equal(t, "payment_updated", f.events.events[0].Event)
	})

	t.Run("failed marks payment and order failed", func(t *testing.T) {
		f := newPaymentFixture()
		ord, p := seed(t, f)

		payload := event("evt_1", "payment_intent.payment_failed", p.TransactionID)
		err := f.svc.HandleWebhook(ctx, payload, signPayload(payload, webhookSecret, time.Now()))
		require.NoError(t, err)

		assert.Equal(t, model.PaymentFailed, f.payments.payments[p.TransactionID].Status)
		got, err := f.orders.FindByID(ctx, ord.ID)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentFailed, got.PaymentStatus)
	})

	t.Run("bad signature is rejected before anything else", func(t *testing.T) {
		f := newPaymentFixture()
		_, p := seed(t, f)

		payload := event("evt_1", "payment_intent.succeeded", p.TransactionID)
		err := f.svc.HandleWebhook(ctx, payload, "t=1,v1=deadbeef")
		assert.ErrorIs(t, err, ErrBadSignature)
		assert.Equal(t, model.PaymentProcessing, f.payments.payments[p.TransactionID].Status)
	})

	t.Run("duplicate delivery is acknowledged without reprocessing", func(t *testing.T) {
		f := newPaymentFixture()
		_, p := seed(t, f)

		payload := event("evt_1", "payment_intent.succeeded", p.TransactionID)
		sig := signPayload(payload, webhookSecret, time.Now())
		require.NoError(t, f.svc.HandleWebhook(ctx, payload, sig))
		require.NoError(t, f.svc.HandleWebhook(ctx, payload, sig))

		// una sola notificación a pesar de las dos entregas
		assert.Len(t, f.events.events, 1)
	})

	t.Run("unknown event type is acknowledged and ignored", func(t *testing.T) {
		f := newPaymentFixture()
		_, p := seed(t, f)

		payload := event("evt_1", "charge.refunded", p.TransactionID)
		err := f.svc.HandleWebhook(ctx, payload, signPayload(payload, webhookSecret, time.Now()))
		assert.NoError(t, err)
		assert.Equal(t, model.PaymentProcessing, f.payments.payments[p.TransactionID].Status)
	})

	t.Run("malformed body", func(t *testing.T) {
		f := newPaymentFixture()

		for _, payload := range [][]byte{
			[]byte(`not json`),
			[]byte(`{"type":"payment_intent.succeeded"}`),
			event("", "payment_intent.succeeded", "pi_x"),
			event("evt_1", "payment_intent.succeeded", ""),
		} {
			err := f.svc.HandleWebhook(ctx, payload, signPayload(payload, webhookSecret, time.Now()))
			assert.ErrorIs(t, err, ErrBadWebhookEvent)
		}
	})

	t.Run("event for an unknown transaction", func(t *testing.T) {
		f := newPaymentFixture()

		payload := event("evt_1", "payment_intent.succeeded", "pi_desconocido")
		err := f.svc.HandleWebhook(ctx, payload, signPayload(payload, webhookSecret, time.Now()))
		assert.ErrorIs(t, err, ErrPaymentNotFound)
	})

	t.Run("failed processing leaves the event free for the retry", func(t *testing.T) {
		f := newPaymentFixture()

		// el evento llega antes de que el pago exista; la primera entrega
		// falla pero no debe quedarse con el id del evento
		payload := event("evt_1", "payment_intent.succeeded", "pi_adelantado")
		sig := signPayload(payload, webhookSecret, time.Now())
		err := f.svc.HandleWebhook(ctx, payload, sig)
		require.ErrorIs(t, err, ErrPaymentNotFound)
		assert.False(t, f.payments.events["evt_1"])

		// aparece el pago y el proveedor reintenta el mismo evento
		customer := primitive.NewObjectID()
		ord := f.seedOrder(t, customer)
		p, err := f.svc.RecordAttempt(ctx, customer, dto.CreatePaymentRequest{
			OrderID:       ord.ID.Hex(),
			Amount:        900,
			PaymentMethod: "card",
		})
		require.NoError(t, err)
		// el reintento trae el mismo id de evento para la transacción real
		retry := event("evt_1", "payment_intent.succeeded", p.TransactionID)
		err = f.svc.HandleWebhook(ctx, retry, signPayload(retry, webhookSecret, time.Now()))
		require.NoError(t, err)

		assert.Equal(t, model.PaymentPaid, f.payments.payments[p.TransactionID].Status)
		got, err := f.orders.FindByID(ctx, ord.ID)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentPaid, got.PaymentStatus)
	})
}
