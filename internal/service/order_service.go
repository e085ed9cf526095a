package service

import (
	"context"
	"errors"
	"math"
	"time"

	"marketplace-api/internal/dto"
	"marketplace-api/internal/model"
	"marketplace-api/internal/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error)
	FindPublic(ctx context.Context, category string) ([]*model.Product, error)
	FindByVendor(ctx context.Context, vendorID primitive.ObjectID) ([]*model.Product, error)
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*model.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) error
	IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error
	Count(ctx context.Context) (int64, error)
}

var (
	ErrProductNotFound    = errors.New("producto no encontrado")
	ErrProductUnavailable = errors.New("el producto no está disponible")
	ErrOutOfStock         = errors.New("stock insuficiente")
	ErrTotalMismatch      = errors.New("el total enviado no coincide con los precios vigentes")
)

type OrderService struct {
	orders   OrderRepository
	statuses StatusRepository
	products ProductRepository
	events   EventPublisher
}

func NewOrderService(orders OrderRepository, statuses StatusRepository, products ProductRepository, events EventPublisher) *OrderService {
	return &OrderService{orders: orders, statuses: statuses, products: products, events: events}
}

// Create arma la orden con un snapshot de nombre y precio de cada producto
// (el catálogo puede cambiar después), descuenta stock de forma condicional
// y deja la primera entrada Pending tanto en el historial embebido como en
// la colección append-only.
func (s *OrderService) Create(ctx context.Context, customerID primitive.ObjectID, req dto.CreateOrderRequest) (*model.Order, error) {
	items := make([]model.OrderItem, 0, len(req.Products))
	var total float64

	for _, line := range req.Products {
		productID, err := primitive.ObjectIDFromHex(line.Product)
		if err != nil {
			return nil, ErrProductNotFound
		}

		p, err := s.products.FindByID(ctx, productID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		if err != nil {
			return nil, err
		}
		if !p.IsActive {
			return nil, ErrProductUnavailable
		}

		price := p.Price
		if p.DiscountPrice > 0 && p.DiscountPrice < p.Price {
			price = p.DiscountPrice
		}

		items = append(items, model.OrderItem{
			Product:  p.ID,
			Name:     p.Name,
			Price:    price,
			Quantity: line.Quantity,
		})
		total += price * float64(line.Quantity)
	}

	if math.Abs(total-req.TotalAmount) > 0.01 {
		return nil, ErrTotalMismatch
	}

	// Descuento condicional de stock; si una línea no alcanza, se repone
	// lo ya descontado (best-effort) y la orden no se crea.
	taken := make([]model.OrderItem, 0, len(items))
	for _, it := range items {
		if err := s.products.DecrementStock(ctx, it.Product, it.Quantity); err != nil {
			s.releaseStock(ctx, taken)
			if errors.Is(err, repository.ErrStale) {
				return nil, ErrOutOfStock
			}
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrProductNotFound
			}
			return nil, err
		}
		taken = append(taken, it)
	}

	order := &model.Order{
		Customer:        customerID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   model.PaymentPending,
		TotalAmount:     total,
		OrderStatus:     model.StatusPending,
		// Primer estado en historial
		TrackingHistory: []model.TrackingEntry{
			{
				Status:    model.StatusPending,
				UpdatedBy: model.RoleCustomer,
				UpdatedAt: time.Now().UTC(),
			},
		},
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.releaseStock(ctx, taken)
		return nil, err
	}

	rec := &model.StatusRecord{
		Order:     order.ID,
		Status:    model.StatusPending,
		CreatedBy: customerID,
		Role:      model.RoleCustomer,
	}
	if err := s.statuses.Insert(ctx, rec); err != nil {
		// la orden ya está creada y el historial embebido tiene Pending;
		// se loguea en vez de fallar para no dejar stock descontado sin orden visible
		logrus.WithError(err).WithField("orderId", order.ID.Hex()).Error("no se pudo insertar la fila Pending")
	}

	if s.events != nil {
		if err := s.events.PublishOrderEvent(ctx, dto.OrderEvent{
			Event:     "order_placed",
			OrderID:   order.ID.Hex(),
			Recipient: customerID.Hex(),
			Status:    model.StatusPending,
			Message:   "Your order has been placed",
		}); err != nil {
			logrus.WithError(err).WithField("orderId", order.ID.Hex()).Warn("no se pudo publicar order_placed")
		}
	}

	return s.orders.FindByID(ctx, order.ID)
}

func (s *OrderService) releaseStock(ctx context.Context, items []model.OrderItem) {
	for _, it := range items {
		if err := s.products.IncrementStock(ctx, it.Product, it.Quantity); err != nil {
			logrus.WithError(err).WithField("product", it.Product.Hex()).Error("no se pudo reponer stock")
		}
	}
}

func (s *OrderService) GetMine(ctx context.Context, customerID primitive.ObjectID) ([]*model.Order, error) {
	return s.orders.FindByCustomer(ctx, customerID)
}

func (s *OrderService) GetForVendor(ctx context.Context, vendorID primitive.ObjectID) ([]*model.Order, error) {
	return s.orders.FindByVendor(ctx, vendorID)
}

func (s *OrderService) GetAll(ctx context.Context) ([]*model.Order, error) {
	return s.orders.FindAll(ctx)
}

// GetByID aplica la misma regla de visibilidad que la línea de tiempo.
func (s *OrderService) GetByID(ctx context.Context, orderID primitive.ObjectID, actor Actor) (*model.Order, error) {
	ord, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case model.RoleAdmin:
	case model.RoleVendor:
		if ord.Vendor == nil || *ord.Vendor != actor.ID {
			return nil, ErrForbidden
		}
	default:
		if ord.Customer != actor.ID {
			return nil, ErrForbidden
		}
	}
	return ord, nil
}

// Delete es admin-only y terminal: borra la orden y su línea de tiempo.
func (s *OrderService) Delete(ctx context.Context, orderID primitive.ObjectID, actor Actor) error {
	if actor.Role != model.RoleAdmin {
		return ErrForbidden
	}
	if err := s.orders.Delete(ctx, orderID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrOrderNotFound
		}
		return err
	}
	if err := s.statuses.DeleteByOrder(ctx, orderID); err != nil {
		logrus.WithError(err).WithField("orderId", orderID.Hex()).Error("no se pudo limpiar la línea de tiempo")
	}
	return nil
}
