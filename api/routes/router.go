package routes

import (
	"context"
	"net/http"
	"time"

	"shipline/internal/bookings"
	"shipline/internal/catalog"
	"shipline/internal/inventory"
	"shipline/internal/notifications"
	"shipline/internal/pricing"
	"shipline/internal/sessions"
	"shipline/internal/shared/config"
	"shipline/internal/shared/database"
	"shipline/pkg/cache"
	"shipline/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router wires the feature packages together and holds the built services so
// main can hand them to the background sweepers.
type Router struct {
	config   *config.Config
	db       *database.DB
	producer *notifications.Producer

	inventoryStore   inventory.Store
	inventoryService inventory.Service
	catalogService   catalog.Service
	sessionManager   *sessions.Manager
	bookingService   bookings.Service
}

func NewRouter(cfg *config.Config, db *database.DB, producer *notifications.Producer) *Router {
	return &Router{
		config:   cfg,
		db:       db,
		producer: producer,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.buildServices()

	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupCatalogRoutes(api)
		r.setupInventoryRoutes(api)
		r.setupSessionRoutes(api)
		r.setupBookingRoutes(api)
	}
}

// buildServices constructs the service graph bottom-up: inventory first,
// then sessions on top of it, then bookings on top of both.
func (r *Router) buildServices() {
	catalogRepo := catalog.NewRepository(r.db.GetPostgreSQL())

	if r.db.Redis != nil {
		r.inventoryStore = inventory.NewRedisStore(r.db.GetRedis())
	} else {
		store := inventory.NewMemoryStore()
		if err := provisionMemoryPools(store, catalogRepo); err != nil {
			logger.GetDefault().Error("failed to provision in-memory seat pools", "error", err)
		}
		r.inventoryStore = store
	}
	r.inventoryService = inventory.NewService(r.inventoryStore)

	catalogService := catalog.NewService(catalogRepo)
	if r.db.Redis != nil {
		catalogService.SetCacheService(cache.NewService(r.db.GetRedis()))
	}
	r.catalogService = catalogService

	r.sessionManager = sessions.NewManager(r.inventoryService, r.config.Booking.SeatHoldTTL)

	bookingRepo := bookings.NewRepository(r.db.GetPostgreSQL())
	r.bookingService = bookings.NewService(
		bookingRepo,
		r.inventoryService,
		r.catalogService,
		r.sessionManager,
		r.producer,
		bookings.Options{
			Fees: pricing.Fees{
				AdminFee:   r.config.Booking.AdminFee,
				ServiceFee: r.config.Booking.ServiceFee,
			},
			PaymentWindow: r.config.Booking.PaymentWindow,
			CodeAttempts:  r.config.Booking.CodeAttempts,
		},
	)
}

// provisionMemoryPools rebuilds the seat pools from the class offerings so a
// redis-less deployment still serves seat maps. Sold seats cannot be
// reconstructed without Redis, so every seat starts Available.
func provisionMemoryPools(store inventory.Store, repo catalog.Repository) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	offerings, err := repo.ListOfferings(ctx)
	if err != nil {
		return err
	}
	for _, offering := range offerings {
		key := inventory.Key{ScheduleID: offering.ScheduleID.String(), Class: offering.Class}
		if err := store.Provision(ctx, key, inventory.GenerateSeatLabels(offering.SeatCapacity)); err != nil {
			return err
		}
	}
	logger.GetDefault().Info("provisioned in-memory seat pools", "pools", len(offerings))
	return nil
}

// Accessors for main: the sweepers run outside the HTTP surface.

func (r *Router) InventoryStore() inventory.Store {
	return r.inventoryStore
}

func (r *Router) InventoryService() inventory.Service {
	return r.inventoryService
}

func (r *Router) BookingService() bookings.Service {
	return r.bookingService
}

func (r *Router) SessionManager() *sessions.Manager {
	return r.sessionManager
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "shipline",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "shipline",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":        "operational",
			"api_version":   r.config.APIVersion,
			"live_sessions": r.sessionManager.Count(),
			"timestamp":     time.Now(),
		})
	})
}

func (r *Router) setupCatalogRoutes(rg *gin.RouterGroup) {
	controller := catalog.NewController(r.catalogService)
	catalog.SetupCatalogRoutes(rg, controller)
}

func (r *Router) setupInventoryRoutes(rg *gin.RouterGroup) {
	controller := inventory.NewController(r.inventoryService)
	inventory.SetupInventoryRoutes(rg, controller)
}

func (r *Router) setupSessionRoutes(rg *gin.RouterGroup) {
	controller := sessions.NewController(r.sessionManager, r.catalogService)
	sessions.SetupSessionRoutes(rg, controller)
}

func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	controller := bookings.NewController(r.bookingService)
	bookings.SetupBookingRoutes(rg, controller)
}
