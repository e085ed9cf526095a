// models.go
package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles posibles de un principal autenticado.
const (
	RoleCustomer = "customer"
	RoleVendor   = "vendor"
	RoleAdmin    = "admin"
)

type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email" json:"email"`
	Password string             `bson:"password" json:"-"`
	Role     string             `bson:"role" json:"role"`
	// Approved aplica a vendors: arrancan pendientes hasta que un admin
	// los aprueba. Customers y admins nacen aprobados.
	Approved  bool      `bson:"approved" json:"approved"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

type OrderItem struct {
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Name     string             `bson:"name" json:"name"`
	Price    float64            `bson:"price" json:"price"`
	Quantity int                `bson:"quantity" json:"quantity"`
}

// TrackingEntry es una entrada del historial embebido en la orden.
type TrackingEntry struct {
	Status    string    `bson:"status" json:"status"`
	UpdatedBy string    `bson:"updated_by" json:"updatedBy"` // rol del actor
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

type Order struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Customer        primitive.ObjectID  `bson:"customer" json:"customer"`
	Vendor          *primitive.ObjectID `bson:"vendor,omitempty" json:"vendor,omitempty"`
	Items           []OrderItem         `bson:"products" json:"products"`
	ShippingAddress string              `bson:"shipping_address" json:"shippingAddress"`
	PaymentMethod   string              `bson:"payment_method" json:"paymentMethod"`
	PaymentStatus   string              `bson:"payment_status" json:"paymentStatus"`
	TotalAmount     float64             `bson:"total_amount" json:"totalAmount"`
	OrderStatus     string              `bson:"order_status" json:"orderStatus"`
	TrackingHistory []TrackingEntry     `bson:"tracking_history" json:"trackingHistory"`
	CreatedAt       time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updated_at" json:"updatedAt"`
}

// StatusRecord vive en la colección append-only order_statuses.
// Índice único compuesto (order, status): un estado no se registra dos veces
// para la misma orden.
type StatusRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Order     primitive.ObjectID `bson:"order" json:"order"`
	Status    string             `bson:"status" json:"status"`
	CreatedBy primitive.ObjectID `bson:"created_by" json:"createdBy"`
	Role      string             `bson:"role" json:"role"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Vendor        primitive.ObjectID `bson:"vendor" json:"vendor"`
	Name          string             `bson:"name" json:"name"`
	Description   string             `bson:"description" json:"description"`
	Category      string             `bson:"category" json:"category"`
	Price         float64            `bson:"price" json:"price"`
	DiscountPrice float64            `bson:"discount_price,omitempty" json:"discountPrice,omitempty"`
	Stock         int                `bson:"stock" json:"stock"`
	Images        []string           `bson:"images" json:"images"`
	IsActive      bool               `bson:"is_active" json:"isActive"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Estados de pago.
const (
	PaymentPending    = "pending"
	PaymentProcessing = "processing"
	PaymentPaid       = "paid"
	PaymentFailed     = "failed"
)

type Payment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Order         primitive.ObjectID `bson:"order" json:"order"`
	User          primitive.ObjectID `bson:"user" json:"user"`
	Amount        float64            `bson:"amount" json:"amount"`
	Method        string             `bson:"method" json:"method"` // cod | online
	Status        string             `bson:"status" json:"status"`
	TransactionID string             `bson:"transaction_id" json:"transactionId"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

type Notification struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Recipient primitive.ObjectID  `bson:"recipient" json:"recipient"`
	Message   string              `bson:"message" json:"message"`
	Type      string              `bson:"type" json:"type"` // Order | Payment | System
	Order     *primitive.ObjectID `bson:"order,omitempty" json:"order,omitempty"`
	IsRead    bool                `bson:"is_read" json:"isRead"`
	CreatedAt time.Time           `bson:"created_at" json:"createdAt"`
}

// Remitentes válidos dentro de un chat.
const (
	SenderCustomer  = "customer"
	SenderVendor    = "vendor"
	SenderAssistant = "assistant"
)

type ChatMessage struct {
	Sender    string    `bson:"sender" json:"sender"`
	Content   string    `bson:"content" json:"content"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Chat es el hilo único entre un cliente y un vendor.
type Chat struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Customer  primitive.ObjectID `bson:"customer" json:"customer"`
	Vendor    primitive.ObjectID `bson:"vendor" json:"vendor"`
	Messages  []ChatMessage      `bson:"messages" json:"messages"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}
