package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"orderup/internal/cart"
	"orderup/internal/checkout"
	"orderup/internal/domain"
	"orderup/internal/service/catalog"
	customersvc "orderup/internal/service/customer"
	ordersvc "orderup/internal/service/order"
	"orderup/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type stubCustomerAuthSvc struct {
	customer  *domain.Customer
	loginErr  error
	signErr   error
	loggedOut []string
}

func (s *stubCustomerAuthSvc) Signup(_ context.Context, in customersvc.SignupInput) (*domain.Customer, error) {
	if s.signErr != nil {
		return nil, s.signErr
	}
	return &domain.Customer{ID: "cust-new", Name: in.Name, Email: in.Email}, nil
}

func (s *stubCustomerAuthSvc) Login(_ context.Context, _, _ string) (*domain.Customer, string, error) {
	if s.loginErr != nil {
		return nil, "", s.loginErr
	}
	return s.customer, "customer-token", nil
}

func (s *stubCustomerAuthSvc) Logout(_ context.Context, token string) error {
	s.loggedOut = append(s.loggedOut, token)
	return nil
}

func (s *stubCustomerAuthSvc) LookupByToken(_ context.Context, token string) (*domain.Customer, error) {
	if token == "customer-token" && s.customer != nil {
		return s.customer, nil
	}
	return nil, customersvc.ErrInvalidToken
}

func (s *stubCustomerAuthSvc) AccessTTLSeconds() int { return 3600 }

type stubAnonymousSvc struct{}

func (stubAnonymousSvc) Issue(context.Context) (string, string, error) {
	return "guest-token", "guest-1", nil
}

func (stubAnonymousSvc) LookupByToken(_ context.Context, token string) (string, error) {
	switch token {
	case "guest-token":
		return "guest-1", nil
	case "guest-token-2":
		return "guest-2", nil
	}
	return "", customersvc.ErrInvalidToken
}

func (stubAnonymousSvc) AccessTTLSeconds() int { return 600 }

type stubCatalog struct {
	items map[string]domain.MenuItem
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{items: map[string]domain.MenuItem{
		"burger": {ID: "burger", RestaurantID: "r1", Name: "Classic Cheeseburger", Price: 55000, Currency: "KES", Category: "Burgers"},
		"fries":  {ID: "fries", RestaurantID: "r1", Name: "French Fries", Price: 25000, Currency: "KES", Category: "Sides"},
	}}
}

func (s *stubCatalog) ListRestaurants(_ context.Context, f catalog.Filter) ([]domain.Restaurant, error) {
	all := []domain.Restaurant{{ID: "r1", Name: "Burger Palace", Cuisine: []string{"Burgers"}}}
	if f.Search != "" && !strings.Contains(strings.ToLower("Burger Palace"), strings.ToLower(f.Search)) {
		return []domain.Restaurant{}, nil
	}
	return all, nil
}

func (s *stubCatalog) GetRestaurant(_ context.Context, id string) (*domain.Restaurant, error) {
	if id != "r1" {
		return nil, domain.ErrNotFound
	}
	return &domain.Restaurant{ID: "r1", Name: "Burger Palace"}, nil
}

func (s *stubCatalog) GetMenu(_ context.Context, id string) ([]domain.MenuCategory, error) {
	if id != "r1" {
		return nil, domain.ErrNotFound
	}
	return []domain.MenuCategory{{ID: "c1", Name: "Burgers", Items: []domain.MenuItem{s.items["burger"]}}}, nil
}

func (s *stubCatalog) GetItem(_ context.Context, restaurantID, itemID string) (*domain.MenuItem, error) {
	it, ok := s.items[itemID]
	if !ok || it.RestaurantID != restaurantID {
		return nil, domain.ErrNotFound
	}
	return &it, nil
}

type stubOrders struct {
	orders map[string]domain.Order
}

func (s *stubOrders) Get(_ context.Context, id, sessionKey string, _ *string) (*domain.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if o.SessionKey != sessionKey {
		return nil, ordersvc.ErrForbidden
	}
	return &o, nil
}

func (s *stubOrders) ListByCustomer(context.Context, string) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range s.orders {
		out = append(out, o)
	}
	return out, nil
}

// stubGateway confirms orders, optionally blocking until released.
type stubGateway struct {
	mu      sync.Mutex
	calls   int
	err     error
	entered chan struct{}
	release chan struct{}
}

func (g *stubGateway) SubmitOrder(ctx context.Context, req checkout.Request) (*checkout.Confirmation, error) {
	g.mu.Lock()
	g.calls++
	entered, release, err := g.entered, g.release, g.err
	g.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &checkout.Confirmation{OrderID: "order-1", OrderNumber: "ORD-0000ABCD", Status: domain.OrderConfirmed, Reference: req.Reference}, nil
}

type testAPI struct {
	router   *gin.Engine
	sessions *session.Manager
	gateway  *stubGateway
	auth     *stubCustomerAuthSvc
	orders   *stubOrders
}

func newTestAPI(t *testing.T, timeout time.Duration) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gw := &stubGateway{}
	policy := cart.FlatFee{Amount: 15000}
	sessions := session.NewManager(session.Config{FeePolicy: policy, Currency: "KES", Gateway: gw, Timeout: timeout})
	auth := &stubCustomerAuthSvc{customer: &domain.Customer{ID: "cust-1", Name: "Jane", Email: "jane@example.com"}}
	orders := &stubOrders{orders: map[string]domain.Order{}}
	router, err := buildRouter(zap.NewNop(), nil, Deps{
		CustomerSvc:  auth,
		AnonymousSvc: stubAnonymousSvc{},
		CatalogSvc:   newStubCatalog(),
		OrderSvc:     orders,
		Sessions:     sessions,
		FeePolicy:    policy,
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return &testAPI{router: router, sessions: sessions, gateway: gw, auth: auth, orders: orders}
}

func (a *testAPI) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}
