package httpserver

import (
	"context"
	"errors"
	"time"

	"orderup/internal/cart"
	"orderup/internal/domain"
	"orderup/internal/service/catalog"
	customersvc "orderup/internal/service/customer"
	"orderup/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type customerService interface {
	Signup(ctx context.Context, in customersvc.SignupInput) (*domain.Customer, error)
	Login(ctx context.Context, email, password string) (*domain.Customer, string, error)
	Logout(ctx context.Context, token string) error
	LookupByToken(ctx context.Context, token string) (*domain.Customer, error)
	AccessTTLSeconds() int
}

type anonymousService interface {
	Issue(ctx context.Context) (accessToken, anonymousID string, err error)
	LookupByToken(ctx context.Context, token string) (string, error)
	AccessTTLSeconds() int
}

type catalogService interface {
	ListRestaurants(ctx context.Context, f catalog.Filter) ([]domain.Restaurant, error)
	GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error)
	GetMenu(ctx context.Context, restaurantID string) ([]domain.MenuCategory, error)
	GetItem(ctx context.Context, restaurantID, itemID string) (*domain.MenuItem, error)
}

type orderService interface {
	Get(ctx context.Context, id, sessionKey string, customerID *string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
}

// ReadyCheck is one dependency probed by /readyz.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps are the services the API is built from.
type Deps struct {
	CustomerSvc  customerService
	AnonymousSvc anonymousService
	CatalogSvc   catalogService
	OrderSvc     orderService
	Sessions     *session.Manager
	FeePolicy    cart.FeePolicy
	CORSOrigins  []string
	ReadyChecks  []ReadyCheck
}

func (d Deps) validate() error {
	switch {
	case d.CustomerSvc == nil:
		return errors.New("httpserver: customer service required")
	case d.AnonymousSvc == nil:
		return errors.New("httpserver: anonymous service required")
	case d.CatalogSvc == nil:
		return errors.New("httpserver: catalog service required")
	case d.OrderSvc == nil:
		return errors.New("httpserver: order service required")
	case d.Sessions == nil:
		return errors.New("httpserver: session manager required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	corsCfg.MaxAge = 12 * time.Hour
	if len(deps.CORSOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = deps.CORSOrigins
	}
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db, deps.ReadyChecks))

	api := router.Group("/api")
	api.Use(identify(deps.CustomerSvc, deps.AnonymousSvc))

	api.POST("/sessions/anonymous", anonymousSessionHandler(deps.AnonymousSvc))

	auth := api.Group("/auth")
	auth.POST("/signup", signupHandler(deps.CustomerSvc))
	auth.POST("/login", loginHandler(deps.CustomerSvc, deps.Sessions))
	auth.POST("/logout", requireCustomer(), logoutHandler(deps.CustomerSvc))
	auth.GET("/profile", requireCustomer(), profileHandler())

	api.GET("/restaurants", listRestaurantsHandler(deps.CatalogSvc))
	api.GET("/restaurants/:id", getRestaurantHandler(deps.CatalogSvc))
	api.GET("/restaurants/:id/menu", getMenuHandler(deps.CatalogSvc))

	shop := api.Group("", requireSession())
	shop.GET("/cart", getCartHandler(deps.Sessions, deps.FeePolicy))
	shop.POST("/cart/items", addCartItemHandler(deps.Sessions, deps.CatalogSvc, deps.FeePolicy))
	shop.PATCH("/cart/items/:itemId", updateCartItemHandler(deps.Sessions, deps.FeePolicy))
	shop.DELETE("/cart/items/:itemId", removeCartItemHandler(deps.Sessions, deps.FeePolicy))
	shop.DELETE("/cart", clearCartHandler(deps.Sessions, deps.FeePolicy))

	shop.POST("/checkout", submitCheckoutHandler(deps.Sessions))
	shop.GET("/checkout", checkoutStatusHandler(deps.Sessions))

	shop.GET("/orders", requireCustomer(), listOrdersHandler(deps.OrderSvc))
	shop.GET("/orders/:id", getOrderHandler(deps.OrderSvc))

	return router, nil
}
