package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"marketplace-api/internal/dto"
	"marketplace-api/internal/model"
	"marketplace-api/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentRepository interface {
	Create(ctx context.Context, p *model.Payment) error
	FindAll(ctx context.Context) ([]*model.Payment, error)
	UpdateStatusByTransaction(ctx context.Context, transactionID, status string) (*model.Payment, error)
	MarkEventSeen(ctx context.Context, eventID string) error
	UnmarkEvent(ctx context.Context, eventID string) error
	Count(ctx context.Context) (int64, error)
}

var (
	ErrBadSignature    = errors.New("firma de webhook inválida")
	ErrBadWebhookEvent = errors.New("evento de webhook malformado")
	ErrPaymentNotFound = errors.New("pago no encontrado para esa transacción")
)

// Tolerancia del timestamp de la firma: fuera de esta ventana el evento
// se rechaza aunque la firma sea correcta (replay).
const signatureTolerance = 5 * time.Minute

type PaymentService struct {
	payments PaymentRepository
	orders   OrderRepository
	events   EventPublisher
	secret   string

	now func() time.Time
}

func NewPaymentService(payments PaymentRepository, orders OrderRepository, events EventPublisher, webhookSecret string) *PaymentService {
	return &PaymentService{
		payments: payments,
		orders:   orders,
		events:   events,
		secret:   webhookSecret,
		now:      time.Now,
	}
}

// RecordAttempt registra un intento de pago del dueño de la orden.
// cod queda pending hasta la entrega; online queda processing hasta que el
// webhook lo reconcilie.
func (s *PaymentService) RecordAttempt(ctx context.Context, userID primitive.ObjectID, req dto.CreatePaymentRequest) (*model.Payment, error) {
	orderID, err := primitive.ObjectIDFromHex(req.OrderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	ord, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if ord.Customer != userID {
		return nil, ErrForbidden
	}

	method := normalizeMethod(req.PaymentMethod)

	payment := &model.Payment{
		Order:  orderID,
		User:   userID,
		Amount: req.Amount,
		Method: method,
	}
	if method == "cod" {
		payment.Status = model.PaymentPending
		payment.TransactionID = "COD"
	} else {
		payment.Status = model.PaymentProcessing
		payment.TransactionID = "pi_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// card, upi y online son variantes de pago online; todo lo demás también,
// salvo cod.
func normalizeMethod(m string) string {
	switch strings.ToLower(strings.TrimSpace(m)) {
	case "cod":
		return "cod"
	default:
		return "online"
	}
}

// HandleWebhook procesa la entrega firmada del proveedor de pagos. Las
// entregas repetidas del mismo evento se reconocen y se ignoran.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	if err := VerifySignature(payload, sigHeader, s.secret, s.now()); err != nil {
		return err
	}

	var event dto.WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return ErrBadWebhookEvent
	}
	if event.ID == "" || event.Data.Object.TransactionID == "" {
		return ErrBadWebhookEvent
	}

	var target string
	switch event.Type {
	case "payment_intent.succeeded":
		target = model.PaymentPaid
	case "payment_intent.payment_failed":
		target = model.PaymentFailed
	default:
		// tipo desconocido: se responde 200 para que no reintente
		return nil
	}

	if err := s.payments.MarkEventSeen(ctx, event.ID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return err
	}

	payment, err := s.payments.UpdateStatusByTransaction(ctx, event.Data.Object.TransactionID, target)
	if err != nil {
		// la marca se libera para que el reintento del proveedor pueda
		// procesar el evento; si queda, el pago no se reconcilia nunca
		s.unmark(ctx, event.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPaymentNotFound
		}
		return err
	}

	if err := s.orders.UpdatePaymentStatus(ctx, payment.Order, target); err != nil {
		s.unmark(ctx, event.ID)
		return err
	}

	if s.events != nil {
		if err := s.events.PublishOrderEvent(ctx, dto.OrderEvent{
			Event:     "payment_updated",
			OrderID:   payment.Order.Hex(),
			Recipient: payment.User.Hex(),
			Message:   fmt.Sprintf("Payment for your order is %s", target),
		}); err != nil {
			logrus.WithError(err).WithField("orderId", payment.Order.Hex()).Warn("no se pudo publicar payment_updated")
		}
	}

	return nil
}

func (s *PaymentService) unmark(ctx context.Context, eventID string) {
	if err := s.payments.UnmarkEvent(ctx, eventID); err != nil {
		logrus.WithError(err).WithField("eventId", eventID).Error("no se pudo liberar el evento de webhook")
	}
}

func (s *PaymentService) ListAll(ctx context.Context) ([]*model.Payment, error) {
	return s.payments.FindAll(ctx)
}

// VerifySignature valida el header `t=<unix>,v1=<hex>` contra el cuerpo:
// la firma es HMAC-SHA256 de "<t>.<payload>" con el secreto compartido,
// comparada en tiempo constante y con ventana anti-replay.
func VerifySignature(payload []byte, header, secret string, now time.Time) error {
	if secret == "" || header == "" {
		return ErrBadSignature
	}

	var ts int64
	var sig string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return ErrBadSignature
			}
			ts = parsed
		case "v1":
			sig = v
		}
	}
	if ts == 0 || sig == "" {
		return ErrBadSignature
	}

	age := now.Sub(time.Unix(ts, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return ErrBadSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return ErrBadSignature
	}
	return nil
}
