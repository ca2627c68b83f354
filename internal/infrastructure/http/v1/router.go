package v1

import (
	"sync"

	"github.com/gin-gonic/gin"

	"medstore/internal/infrastructure/http/v1/dto"
	"medstore/internal/infrastructure/http/v1/handlers"
	"medstore/internal/infrastructure/http/v1/middleware"
	"medstore/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Database and Redis back the readiness probe; Redis may be nil
	Database handlers.Pinger
	Redis    handlers.Pinger

	// Idempotency enables replay of mutating requests when set
	Idempotency middleware.IdempotencyStore

	PurchaseOrders handlers.PurchaseOrderService
	Medicines      handlers.MedicineService
	Suppliers      handlers.SupplierService
	Reorder        handlers.ReorderService

	// Audit enables the history endpoints when set
	Audit handlers.HistoryReader

	Development bool
}

var validatorsOnce sync.Once

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	validatorsOnce.Do(func() {
		if err := dto.RegisterValidators(); err != nil {
			cfg.Logger.Errorw("failed to register request validators", "error", err)
		}
	})

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	health := handlers.NewHealthHandler(cfg.Database, cfg.Redis)
	router.GET("/health", health.Live)
	router.GET("/ready", health.Ready)

	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator)) // 1. Validate JWT
		protected.Use(middleware.Organization())        // 2. Resolve organization scope

		if cfg.Idempotency != nil {
			protected.Use(middleware.Idempotency(cfg.Idempotency))
		}

		base := handlers.NewBaseHandler()
		registerPurchaseOrderRoutes(protected, base, cfg)
		registerMedicineRoutes(protected, base, cfg)
		registerSupplierRoutes(protected, base, cfg)
		registerReorderRoutes(protected, base, cfg)
	}

	return router
}

func registerPurchaseOrderRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewPurchaseOrderHandler(base, cfg.PurchaseOrders)
	write := middleware.RequireRole(rolesWrite...)
	manage := middleware.RequireRole(rolesManager...)

	orders := rg.Group("/purchase-orders")
	orders.POST("", write, h.Create)
	orders.GET("", h.List)
	orders.GET("/:id", h.Get)
	orders.PUT("/:id", write, h.Update)
	orders.POST("/:id/approve", manage, h.Approve)
	orders.POST("/:id/order", manage, h.MarkOrdered)
	orders.POST("/:id/receive", write, h.Receive)
	orders.GET("/:id/receipts", h.Receipts)
	orders.POST("/:id/cancel", manage, h.Cancel)
	orders.DELETE("/:id", manage, h.Delete)

	registerHistoryRoute(orders, base, cfg, "purchase_order")
}

func registerMedicineRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewMedicineHandler(base, cfg.Medicines)

	medicines := rg.Group("/medicines")
	medicines.POST("", middleware.RequireRole(rolesWrite...), h.Create)
	medicines.GET("", h.List)
	medicines.GET("/:id", h.Get)
	medicines.POST("/:id/adjust", middleware.RequireRole(rolesWrite...), h.Adjust)
	medicines.GET("/:id/transactions", h.Transactions)
	medicines.DELETE("/:id", middleware.RequireRole(rolesManager...), h.Deactivate)

	registerHistoryRoute(medicines, base, cfg, "medicine")
}

func registerSupplierRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	suppliers := rg.Group("/suppliers")
	RegisterEntityRoutes(suppliers, handlers.NewSupplierHandler(base, cfg.Suppliers), rolesManager)

	registerHistoryRoute(suppliers, base, cfg, "supplier")
}

func registerReorderRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewReorderHandler(base, cfg.Reorder)

	reorder := rg.Group("/reorder")
	reorder.GET("/suggestions", h.Suggestions)
	reorder.POST("/generate", middleware.RequireRole(rolesManager...), h.Generate)
}

func registerHistoryRoute(group *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig, entityType string) {
	if cfg.Audit == nil {
		return
	}
	h := handlers.NewAuditHandler(base, cfg.Audit)
	group.GET("/:id/history", middleware.RequireRole(rolesManager...), h.History(entityType))
}
