package app

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/item-sharing-backend/internal/api"
	"github.com/nekogravitycat/item-sharing-backend/internal/booking"
	"github.com/nekogravitycat/item-sharing-backend/internal/clock"
	"github.com/nekogravitycat/item-sharing-backend/internal/item"
	"github.com/nekogravitycat/item-sharing-backend/internal/pkg/idempotency"
	"github.com/nekogravitycat/item-sharing-backend/internal/pkg/mq"
	"github.com/nekogravitycat/item-sharing-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool

	// Optional. Nil values fall back to a no-op publisher, no idempotency and the system clock.
	Publisher   booking.EventPublisher
	Idempotency idempotency.Store
	Clock       clock.Clock
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router         *gin.Engine
	UserService    user.Service
	ItemService    item.Service
	BookingService booking.Service
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.System()
	}
	var publisher booking.EventPublisher = mq.NopPublisher{}
	if cfg.Publisher != nil {
		publisher = cfg.Publisher
	}

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo)

	// Booking repository is built first: items consult it for comment eligibility.
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)

	// Item Module
	itemRepo := item.NewPgxRepository(cfg.DBPool)
	itemService := item.NewService(itemRepo, userService, bookingRepo, clk)

	// Booking Module
	bookingService := booking.NewService(bookingRepo, userService, itemService, publisher, clk)

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		UserService:    userService,
		ItemService:    itemService,
		BookingService: bookingService,
		Idempotency:    cfg.Idempotency,
	})

	return &Container{
		Router:         router,
		UserService:    userService,
		ItemService:    itemService,
		BookingService: bookingService,
	}
}
