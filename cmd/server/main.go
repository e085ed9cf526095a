package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rabbitmq/amqp091-go"
	rd "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"marketplace-api/internal/assist"
	"marketplace-api/internal/config"
	"marketplace-api/internal/controller"
	"marketplace-api/internal/mail"
	"marketplace-api/internal/middleware"
	"marketplace-api/internal/model"
	"marketplace-api/internal/rabbit"
	"marketplace-api/internal/repository"
	"marketplace-api/internal/service"
)

func main() {
	// .env es opcional; en producción las variables vienen del entorno
	if err := godotenv.Load(); err != nil {
		logrus.Debug("sin archivo .env, se usa el entorno")
	}

	cfg := config.Load()

	// Conexión a MongoDB
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logrus.Fatal(err)
	}
	db := client.Database(cfg.MongoDBName)

	// Redis para los códigos de login
	rdb := rd.NewClient(&rd.Options{Addr: cfg.RedisAddr})

	// Repositorios
	userRepo := repository.NewMongoUserRepository(db)
	orderRepo := repository.NewMongoOrderRepository(db)
	statusRepo := repository.NewMongoStatusRepository(db)
	productRepo := repository.NewMongoProductRepository(db)
	paymentRepo := repository.NewMongoPaymentRepository(db)
	notificationRepo := repository.NewMongoNotificationRepository(db)
	chatRepo := repository.NewMongoChatRepository(db)
	otpStore := repository.NewRedisOTPStore(rdb)

	if err := userRepo.EnsureIndexes(ctx); err != nil {
		logrus.Fatalf("índice de users: %v", err)
	}
	if err := statusRepo.EnsureIndexes(ctx); err != nil {
		logrus.Fatalf("índice de order_statuses: %v", err)
	}

	// Conexión a RabbitMQ
	conn, err := amqp091.Dial(cfg.RabbitURL)
	if err != nil {
		logrus.Fatalf("error conectando a RabbitMQ: %v", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		logrus.Fatalf("error creando canal en RabbitMQ: %v", err)
	}

	publisher, err := rabbit.NewPublisher(ch)
	if err != nil {
		logrus.Fatalf("error declarando exchange: %v", err)
	}

	// Servicios
	mailer := mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	assistClient := assist.NewClient(cfg.AssistURL, cfg.AssistKey)

	authService := service.NewAuthService(userRepo, otpStore, mailer, cfg.JWTSecret)
	trackingService := service.NewTrackingService(orderRepo, statusRepo, userRepo, publisher)
	orderService := service.NewOrderService(orderRepo, statusRepo, productRepo, publisher)
	catalogService := service.NewCatalogService(productRepo)
	paymentService := service.NewPaymentService(paymentRepo, orderRepo, publisher, cfg.WebhookSecret)
	notificationService := service.NewNotificationService(notificationRepo)
	adminService := service.NewAdminService(userRepo, orderRepo, productRepo, paymentRepo)
	chatService := service.NewChatService(chatRepo, userRepo, assistClient, assist.FallbackReply)

	// Handlers
	authCtl := controller.NewAuthController(authService)
	orderCtl := controller.NewOrderController(orderService, trackingService)
	statusCtl := controller.NewStatusController(trackingService)
	productCtl := controller.NewProductController(catalogService)
	paymentCtl := controller.NewPaymentController(paymentService)
	notificationCtl := controller.NewNotificationController(notificationService)
	chatCtl := controller.NewChatController(chatService)
	adminCtl := controller.NewAdminController(adminService)

	// Router
	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.String(200, "API running")
	})

	api := r.Group("/api")
	api.Use(middleware.RateLimit())

	// Rutas públicas
	api.POST("/users/register", authCtl.Register)
	api.POST("/users/login", authCtl.Login)
	api.POST("/users/verify-otp", authCtl.VerifyOTP)
	api.GET("/products", productCtl.List)
	api.GET("/products/:id", productCtl.Get)
	// el webhook viene firmado por el proveedor, no trae token
	api.POST("/payments/stripe/webhook", paymentCtl.Webhook)

	// Rutas protegidas (requieren token)
	auth := api.Group("/")
	auth.Use(middleware.Authenticate(authService))

	auth.GET("/users/profile", authCtl.Profile)
	auth.GET("/users/check-role", authCtl.CheckRole)
	auth.POST("/users/logout", authCtl.Logout)

	auth.GET("/orders/:id", orderCtl.GetByID)
	auth.GET("/order-status/track/:orderId", statusCtl.Track)

	auth.GET("/notifications/mine", notificationCtl.GetMine)
	auth.PUT("/notifications/read-all", notificationCtl.MarkAllRead)
	auth.PUT("/notifications/:id/read", notificationCtl.MarkRead)

	auth.GET("/chats", chatCtl.List)
	auth.POST("/chats/:id/messages", chatCtl.SendMessage)

	// Rutas de customer
	customer := auth.Group("/")
	customer.Use(middleware.RequireRoles(model.RoleCustomer))
	customer.POST("/orders", orderCtl.Create)
	customer.GET("/orders/myorders", orderCtl.GetMyOrders)
	customer.POST("/payments", paymentCtl.Create)
	customer.POST("/chats", chatCtl.Open)
	customer.POST("/chats/:id/assistant", chatCtl.AssistantReply)

	// Rutas de vendor
	vendor := auth.Group("/")
	vendor.Use(middleware.RequireRoles(model.RoleVendor))
	vendor.GET("/orders/vendor", orderCtl.GetVendorOrders)
	vendor.POST("/products", productCtl.Create)
	vendor.GET("/products/mine", productCtl.ListMine)
	vendor.PUT("/products/:id", productCtl.Update)
	vendor.DELETE("/products/:id", productCtl.Delete)

	// Transiciones de estado: vendor asignado o admin
	status := auth.Group("/")
	status.Use(middleware.RequireRoles(model.RoleVendor, model.RoleAdmin))
	status.POST("/order-status", statusCtl.CreateStatus)
	status.PATCH("/order-status/:orderId", statusCtl.UpdateStatus)
	status.PUT("/order-status/:orderId", statusCtl.UpdateStatus)

	// Rutas admin
	admin := auth.Group("/")
	admin.Use(middleware.RequireRoles(model.RoleAdmin))
	admin.GET("/orders", orderCtl.GetAll)
	admin.PUT("/orders/:id/assign", orderCtl.AssignVendor)
	admin.PUT("/orders/:id/status", orderCtl.ForceStatus)
	admin.DELETE("/orders/:id", orderCtl.Delete)
	admin.GET("/payments", paymentCtl.GetAll)
	admin.GET("/notifications", notificationCtl.GetAll)
	admin.POST("/notifications", notificationCtl.Create)
	admin.GET("/admin/dashboard", adminCtl.Dashboard)
	admin.GET("/admin/vendors", adminCtl.ListVendors)
	admin.GET("/admin/vendors/pending", adminCtl.ListPendingVendors)
	admin.PATCH("/admin/vendors/:id/approve", adminCtl.ApproveVendor)
	admin.PATCH("/admin/vendors/:id/reject", adminCtl.RejectVendor)

	// Consumer de eventos → notificaciones
	rabbit.SetupConsumers(ch, notificationService)

	// Ejecutar servidor
	logrus.WithField("port", cfg.Port).Info("marketplace API escuchando")
	if err := r.Run(":" + cfg.Port); err != nil {
		logrus.Fatal(err)
	}
}
