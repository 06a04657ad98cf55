package api

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/item-sharing-backend/internal/auth"
	"github.com/nekogravitycat/item-sharing-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/item-sharing-backend/internal/booking/http"
	"github.com/nekogravitycat/item-sharing-backend/internal/item"
	itemHttp "github.com/nekogravitycat/item-sharing-backend/internal/item/http"
	"github.com/nekogravitycat/item-sharing-backend/internal/pkg/idempotency"
	"github.com/nekogravitycat/item-sharing-backend/internal/user"
	userHttp "github.com/nekogravitycat/item-sharing-backend/internal/user/http"
)

// Config holds the services and settings the router is built from.
type Config struct {
	IsProduction bool
	ProdOrigins  string

	UserService    user.Service
	ItemService    item.Service
	BookingService booking.Service

	// Idempotency is optional. When nil, Idempotency-Key headers are ignored.
	Idempotency idempotency.Store
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, request id) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global Middleware:
	// - RequestID: Tags every request so log lines can be correlated.
	// - Logger: Logs request information to the console.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(RequestID(), gin.Logger(), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins(cfg)
	config.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", auth.UserIDHeader, idempotency.Header, RequestIDHeader}
	config.ExposeHeaders = []string{RequestIDHeader}
	r.Use(cors.New(config))

	// sharerMiddleware: Reads the calling user from the X-Sharer-User-Id header.
	sharerMiddleware := auth.SharerRequired()

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	userHandler := userHttp.NewHandler(cfg.UserService)
	itemHandler := itemHttp.NewHandler(cfg.ItemService, cfg.BookingService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService, cfg.Idempotency)

	root := r.Group("")
	{
		userHttp.RegisterRoutes(root, userHandler)
		itemHttp.RegisterRoutes(root, itemHandler, sharerMiddleware)
		bookingHttp.RegisterRoutes(root, bookingHandler, sharerMiddleware)
	}

	return r
}

func allowedOrigins(cfg Config) []string {
	if !cfg.IsProduction {
		return []string{"http://localhost:8081"}
	}

	var origins []string
	for _, o := range strings.Split(cfg.ProdOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
