// dto.go
package dto

import "marketplace-api/internal/model"

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required"`
}

// AuthResponse cubre los dos resultados del login: token directo
// (admin/vendor) o aviso de OTP enviado (customer, Token vacío).
type AuthResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token,omitempty"`
	Role    string      `json:"role"`
	User    *model.User `json:"user,omitempty"`
}

type OrderItemRequest struct {
	Product  string `json:"product" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

type CreateOrderRequest struct {
	Products        []OrderItemRequest `json:"products" binding:"required,min=1,dive"`
	ShippingAddress string             `json:"shippingAddress" binding:"required"`
	PaymentMethod   string             `json:"paymentMethod" binding:"required"`
	TotalAmount     float64            `json:"totalAmount" binding:"required,gt=0"`
}

type AssignVendorRequest struct {
	VendorID string `json:"vendorId" binding:"required"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type CreateStatusRequest struct {
	Order  string `json:"order" binding:"required"`
	Status string `json:"status" binding:"required"`
}

// TrackingResponse es la proyección visible para el cliente.
type TrackingResponse struct {
	Order    TrackedOrder         `json:"order"`
	Timeline []model.StatusRecord `json:"timeline"`
}

type TrackedOrder struct {
	ID          string `json:"_id"`
	OrderStatus string `json:"orderStatus"`
}

type CreateProductRequest struct {
	Name          string   `json:"name" binding:"required"`
	Description   string   `json:"description" binding:"required"`
	Category      string   `json:"category" binding:"required"`
	Price         float64  `json:"price" binding:"required,gt=0"`
	DiscountPrice float64  `json:"discountPrice"`
	Stock         int      `json:"stock"`
	Images        []string `json:"images"`
}

type UpdateProductRequest struct {
	Name          *string   `json:"name"`
	Description   *string   `json:"description"`
	Category      *string   `json:"category"`
	Price         *float64  `json:"price"`
	DiscountPrice *float64  `json:"discountPrice"`
	Stock         *int      `json:"stock"`
	Images        *[]string `json:"images"`
	IsActive      *bool     `json:"isActive"`
}

type CreatePaymentRequest struct {
	OrderID       string  `json:"orderId" binding:"required"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	PaymentMethod string  `json:"paymentMethod" binding:"required"`
}

// WebhookEvent es el sobre firmado que manda el proveedor de pagos.
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			TransactionID string `json:"transactionId"`
		} `json:"object"`
	} `json:"data"`
}

type CreateNotificationRequest struct {
	Recipient string `json:"recipient" binding:"required"`
	Message   string `json:"message" binding:"required"`
	Type      string `json:"type" binding:"required"`
	OrderID   string `json:"orderId"`
}

// OrderEvent viaja por el exchange fanout de eventos de orden y termina
// materializado como Notification por el consumer.
type OrderEvent struct {
	Event     string `json:"event"` // order_placed | status_updated | vendor_assigned | payment_updated
	OrderID   string `json:"orderId"`
	Recipient string `json:"recipient"`
	Status    string `json:"status,omitempty"`
	Message   string `json:"message"`
}

// DashboardStats son los conteos crudos del panel de admin.
type DashboardStats struct {
	Customers      int64 `json:"customers"`
	Vendors        int64 `json:"vendors"`
	PendingVendors int64 `json:"pendingVendors"`
	Orders         int64 `json:"orders"`
	Products       int64 `json:"products"`
	Payments       int64 `json:"payments"`
}

type CreateChatRequest struct {
	VendorID string `json:"vendorId" binding:"required"`
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}
