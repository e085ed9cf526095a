package service

import (
	"context"
	"errors"

	"marketplace-api/internal/dto"
	"marketplace-api/internal/model"
	"marketplace-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrUserNotFound = errors.New("usuario no encontrado")

// AdminService concentra la gestión de vendors y el dashboard. Todas las
// operaciones asumen que el middleware ya verificó el rol admin.
type AdminService struct {
	users    UserRepository
	orders   OrderRepository
	products ProductRepository
	payments PaymentRepository
}

func NewAdminService(users UserRepository, orders OrderRepository, products ProductRepository, payments PaymentRepository) *AdminService {
	return &AdminService{users: users, orders: orders, products: products, payments: payments}
}

func (s *AdminService) ListVendors(ctx context.Context) ([]*model.User, error) {
	return s.users.FindByRole(ctx, model.RoleVendor)
}

func (s *AdminService) ListPendingVendors(ctx context.Context) ([]*model.User, error) {
	return s.users.FindPendingVendors(ctx)
}

// ApproveVendor habilita un vendor pendiente. Rechazar vuelve a dejarlo
// pendiente, no lo borra: el admin puede aprobarlo más tarde.
func (s *AdminService) ApproveVendor(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	return s.setApproval(ctx, id, true)
}

func (s *AdminService) RejectVendor(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	return s.setApproval(ctx, id, false)
}

func (s *AdminService) setApproval(ctx context.Context, id primitive.ObjectID, approved bool) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if user.Role != model.RoleVendor {
		return nil, ErrNotAVendor
	}
	return s.users.UpdateApproval(ctx, id, approved)
}

// Dashboard junta los conteos del panel; cualquier error corta la consulta.
func (s *AdminService) Dashboard(ctx context.Context) (*dto.DashboardStats, error) {
	stats := &dto.DashboardStats{}

	var err error
	if stats.Customers, err = s.users.CountByRole(ctx, model.RoleCustomer); err != nil {
		return nil, err
	}
	if stats.Vendors, err = s.users.CountByRole(ctx, model.RoleVendor); err != nil {
		return nil, err
	}
	pending, err := s.users.FindPendingVendors(ctx)
	if err != nil {
		return nil, err
	}
	stats.PendingVendors = int64(len(pending))

	if stats.Orders, err = s.orders.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Products, err = s.products.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Payments, err = s.payments.Count(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}
