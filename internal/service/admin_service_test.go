package service

import (
	"context"
	"testing"

	"marketplace-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type adminFixture struct {
	users    *fakeUserRepo
	orders   *fakeOrderRepo
	products *fakeProductRepo
	payments *fakePaymentRepo
	svc      *AdminService
}

func newAdminFixture() *adminFixture {
	f := &adminFixture{
		users:    newFakeUserRepo(),
		orders:   newFakeOrderRepo(),
		products: newFakeProductRepo(),
		payments: newFakePaymentRepo(),
	}
	f.svc = NewAdminService(f.users, f.orders, f.products, f.payments)
	return f
}

func TestVendorApproval(t *testing.T) {
	ctx := context.Background()

	t.Run("approve clears the vendor from the pending list", func(t *testing.T) {
		f := newAdminFixture()
		vendor := f.users.add(model.RoleVendor)

		pending, err := f.svc.ListPendingVendors(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 1)

		got, err := f.svc.ApproveVendor(ctx, vendor.ID)
		require.NoError(t, err)
		assert.True(t, got.Approved)

		pending, err = f.svc.ListPendingVendors(ctx)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("reject returns the vendor to pending", func(t *testing.T) {
		f := newAdminFixture()
		vendor := f.users.add(model.RoleVendor)

		_, err := f.svc.ApproveVendor(ctx, vendor.ID)
		require.NoError(t, err)

		got, err := f.svc.RejectVendor(ctx, vendor.ID)
		require.NoError(t, err)
		assert.False(t, got.Approved)

		pending, err := f.svc.ListPendingVendors(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 1)
	})

	t.Run("target must be a vendor", func(t *testing.T) {
		f := newAdminFixture()
		customer := f.users.add(model.RoleCustomer)

		_, err := f.svc.ApproveVendor(ctx, customer.ID)
		assert.ErrorIs(t, err, ErrNotAVendor)

		_, err = f.svc.RejectVendor(ctx, primitive.NewObjectID())
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("list covers approved and pending alike", func(t *testing.T) {
		f := newAdminFixture()
		v1 := f.users.add(model.RoleVendor)
		f.users.add(model.RoleVendor)
		f.users.add(model.RoleCustomer)

		_, err := f.svc.ApproveVendor(ctx, v1.ID)
		require.NoError(t, err)

		vendors, err := f.svc.ListVendors(ctx)
		require.NoError(t, err)
		assert.Len(t, vendors, 2)
	})
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()

	f := newAdminFixture()
	f.users.add(model.RoleCustomer)
	f.users.add(model.RoleCustomer)
	v := f.users.add(model.RoleVendor)
	f.users.add(model.RoleVendor)
	f.users.add(model.RoleAdmin)

	_, err := f.svc.ApproveVendor(ctx, v.ID)
	require.NoError(t, err)

	require.NoError(t, f.orders.Create(ctx, &model.Order{Customer: primitive.NewObjectID()}))
	require.NoError(t, f.products.Create(ctx, &model.Product{Name: "Mate", Price: 10}))
	require.NoError(t, f.payments.Create(ctx, &model.Payment{TransactionID: "pi_1"}))
	require.NoError(t, f.payments.Create(ctx, &model.Payment{TransactionID: "pi_2"}))

	stats, err := f.svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Customers)
	assert.Equal(t, int64(2), stats.Vendors)
	assert.Equal(t, int64(1), stats.PendingVendors)
	assert.Equal(t, int64(1), stats.Orders)
	assert.Equal(t, int64(1), stats.Products)
	assert.Equal(t, int64(2), stats.Payments)
}
