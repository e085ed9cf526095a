package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-api/internal/dto"
	"marketplace-api/internal/model"
	"marketplace-api/internal/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Interfaces que debe implementar repository
type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Order, error)
	UpdateStatus(ctx context.Context, orderID primitive.ObjectID, fromStatus, toStatus string, entry model.TrackingEntry) error
	AssignVendor(ctx context.Context, orderID, vendorID primitive.ObjectID, fromStatus string, entry model.TrackingEntry) error
	UpdatePaymentStatus(ctx context.Context, orderID primitive.ObjectID, status string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	FindByCustomer(ctx context.Context, customerID primitive.ObjectID) ([]*model.Order, error)
	FindByVendor(ctx context.Context, vendorID primitive.ObjectID) ([]*model.Order, error)
	FindAll(ctx context.Context) ([]*model.Order, error)
	Count(ctx context.Context) (int64, error)
}

type StatusRepository interface {
	Insert(ctx context.Context, rec *model.StatusRecord) error
	FindByOrder(ctx context.Context, orderID primitive.ObjectID) ([]model.StatusRecord, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByOrder(ctx context.Context, orderID primitive.ObjectID) error
}

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	FindByRole(ctx context.Context, role string) ([]*model.User, error)
	FindPendingVendors(ctx context.Context) ([]*model.User, error)
	UpdateApproval(ctx context.Context, id primitive.ObjectID, approved bool) (*model.User, error)
	CountByRole(ctx context.Context, role string) (int64, error)
}

// EventPublisher manda eventos de orden al exchange fanout. El envío es
// best-effort: un fallo se loguea y nunca corta la operación.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event dto.OrderEvent) error
}

// Actor es el principal resuelto por el middleware.
type Actor struct {
	ID   primitive.ObjectID
	Role string
}

// Errores de negocio exportados (los usa el controller)
var (
	ErrForbidden       = errors.New("forbidden")
	ErrOrderNotFound   = errors.New("orden no encontrada")
	ErrInvalidStatus   = errors.New("estado fuera del vocabulario permitido")
	ErrFinalState      = errors.New("la orden está en un estado final")
	ErrDuplicateStatus = errors.New("el estado ya fue registrado para esta orden")
	ErrConflict        = errors.New("la orden fue modificada por otra escritura")
	ErrNotAVendor      = errors.New("el usuario indicado no es un vendor")
)

// TrackingService mantiene el estado autoritativo de cada orden y el
// historial de cómo llegó ahí, validando quién puede avanzarlo.
type TrackingService struct {
	orders   OrderRepository
	statuses StatusRepository
	users    UserRepository
	events   EventPublisher
}

func NewTrackingService(orders OrderRepository, statuses StatusRepository, users UserRepository, events EventPublisher) *TrackingService {
	return &TrackingService{orders: orders, statuses: statuses, users: users, events: events}
}

// RecordStatus valida el estado nuevo, la autorización del actor y aplica
// el cambio: inserta la fila append-only y actualiza la orden con CAS para
// que el estado actual nunca se despegue de la última entrada del
// historial, aun con escritores concurrentes.
func (s *TrackingService) RecordStatus(ctx context.Context, orderID primitive.ObjectID, rawStatus string, actor Actor) (*model.StatusRecord, error) {
	status := model.NormalizeStatus(rawStatus)
	if !model.IsValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	ord, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.authorizeWrite(ord, actor); err != nil {
		return nil, err
	}

	if model.IsTerminalStatus(ord.OrderStatus) {
		return nil, ErrFinalState
	}

	rec := &model.StatusRecord{
		Order:     orderID,
		Status:    status,
		CreatedBy: actor.ID,
		Role:      actor.Role,
	}
	if err := s.statuses.Insert(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateStatus
		}
		return nil, err
	}

	entry := model.TrackingEntry{
		Status:    status,
		UpdatedBy: actor.Role,
		UpdatedAt: rec.CreatedAt,
	}
	if err := s.orders.UpdateStatus(ctx, orderID, ord.OrderStatus, status, entry); err != nil {
		if errors.Is(err, repository.ErrStale) {
			// otro escritor ganó la carrera: la fila recién insertada
			// quedaría huérfana respecto del estado actual, se revierte
			s.rollbackStatusRow(ctx, rec.ID)
			return nil, ErrConflict
		}
		return nil, err
	}

	s.notify(ctx, dto.OrderEvent{
		Event:     "status_updated",
		OrderID:   orderID.Hex(),
		Recipient: ord.Customer.Hex(),
		Status:    status,
		Message:   fmt.Sprintf("Your order is now %s", status),
	})

	return rec, nil
}

// GetTimeline devuelve la línea de tiempo de la orden. Un customer sólo ve
// sus propias órdenes; un vendor sólo las que tiene asignadas.
func (s *TrackingService) GetTimeline(ctx context.Context, orderID primitive.ObjectID, actor Actor) (*dto.TrackingResponse, error) {
	ord, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case model.RoleAdmin:
		// ve todo
	case model.RoleVendor:
		if ord.Vendor == nil || *ord.Vendor != actor.ID {
			return nil, ErrForbidden
		}
	default:
		if ord.Customer != actor.ID {
			return nil, ErrForbidden
		}
	}

	timeline, err := s.statuses.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return &dto.TrackingResponse{
		Order: dto.TrackedOrder{
			ID:          ord.ID.Hex(),
			OrderStatus: ord.OrderStatus,
		},
		Timeline: timeline,
	}, nil
}

// AssignVendor es admin-only: fija el vendor de la orden y registra la
// transición a Assigned por el mismo camino que cualquier otro estado.
func (s *TrackingService) AssignVendor(ctx context.Context, orderID, vendorID primitive.ObjectID, actor Actor) (*model.Order, error) {
	if actor.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}

	vendor, err := s.users.FindByID(ctx, vendorID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotAVendor
	}
	if err != nil {
		return nil, err
	}
	if vendor.Role != model.RoleVendor {
		return nil, ErrNotAVendor
	}

	ord, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if model.IsTerminalStatus(ord.OrderStatus) {
		return nil, ErrFinalState
	}

	// Reasignación: la orden ya está en Assigned, la fila de la línea de
	// tiempo ya existe y sólo cambia el vendor.
	reassign := ord.OrderStatus == model.StatusAssigned

	var rec *model.StatusRecord
	entry := model.TrackingEntry{
		Status:    model.StatusAssigned,
		UpdatedBy: actor.Role,
		UpdatedAt: time.Now().UTC(),
	}
	if !reassign {
		rec = &model.StatusRecord{
			Order:     orderID,
			Status:    model.StatusAssigned,
			CreatedBy: actor.ID,
			Role:      actor.Role,
		}
		if err := s.statuses.Insert(ctx, rec); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, ErrDuplicateStatus
			}
			return nil, err
		}
		entry.UpdatedAt = rec.CreatedAt
	}

	if err := s.orders.AssignVendor(ctx, orderID, vendorID, ord.OrderStatus, entry); err != nil {
		if errors.Is(err, repository.ErrStale) {
			if rec != nil {
				s.rollbackStatusRow(ctx, rec.ID)
			}
			return nil, ErrConflict
		}
		return nil, err
	}

	s.notify(ctx, dto.OrderEvent{
		Event:     "vendor_assigned",
		OrderID:   orderID.Hex(),
		Recipient: vendorID.Hex(),
		Status:    model.StatusAssigned,
		Message:   "A new order has been assigned to you",
	})
	s.notify(ctx, dto.OrderEvent{
		Event:     "status_updated",
		OrderID:   orderID.Hex(),
		Recipient: ord.Customer.Hex(),
		Status:    model.StatusAssigned,
		Message:   "Your order has been assigned to a vendor",
	})

	return s.orders.FindByID(ctx, orderID)
}

func (s *TrackingService) authorizeWrite(ord *model.Order, actor Actor) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleVendor:
		if ord.Vendor == nil || *ord.Vendor != actor.ID {
			return ErrForbidden
		}
		return nil
	default:
		return ErrForbidden
	}
}

// rollbackStatusRow borra la fila que quedó sin respaldo en la orden. Si
// el borrado también falla sólo se loguea: el 409 ya salió.
func (s *TrackingService) rollbackStatusRow(ctx context.Context, id primitive.ObjectID) {
	if err := s.statuses.Delete(ctx, id); err != nil {
		logrus.WithError(err).WithField("statusId", id.Hex()).Error("no se pudo revertir la fila de estado")
	}
}

// notify es fire-and-forget: el fallo se loguea y nada más.
func (s *TrackingService) notify(ctx context.Context, event dto.OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		logrus.WithFields(logrus.Fields{
			"event":   event.Event,
			"orderId": event.OrderID,
		}).WithError(err).Warn("no se pudo publicar el evento de orden")
	}
}

// Current devuelve el último estado de una línea de tiempo ya ordenada.
func Current(timeline []model.StatusRecord) (model.StatusRecord, bool) {
	if len(timeline) == 0 {
		return model.StatusRecord{}, false
	}
	return timeline[len(timeline)-1], true
}
