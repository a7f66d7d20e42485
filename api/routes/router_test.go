package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/wholesale-backend/api/middleware"
	"github.com/angelmondragon/wholesale-backend/internal/auth"
	"github.com/angelmondragon/wholesale-backend/internal/cart"
	"github.com/angelmondragon/wholesale-backend/internal/checkout"
	"github.com/angelmondragon/wholesale-backend/internal/fallback"
	"github.com/angelmondragon/wholesale-backend/internal/orders"
	"github.com/angelmondragon/wholesale-backend/pkg/auth/session"
	"github.com/angelmondragon/wholesale-backend/pkg/config"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
	"github.com/angelmondragon/wholesale-backend/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Env: "test", Port: "0"},
		Admin:   config.AdminConfig{User: "admin", Password: "Password@123"},
		JWT:     config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60},
		Cart:    config.CartConfig{SessionTTL: time.Hour},
		Uploads: config.UploadsConfig{PublicURL: "/uploads", MaxMB: 5},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})

	prods, cats := fallback.New()
	carts, err := cart.NewService(cart.NewMemoryStore(), prods, logg)
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}
	orderLog := orders.NewFallback(logg)
	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Carts:          carts,
		Orders:         orderLog,
		WhatsAppNumber: "919876543210",
		Logger:         logg,
	})
	if err != nil {
		t.Fatalf("checkout service: %v", err)
	}
	authSvc, err := auth.NewService(auth.ServiceParams{
		Admin:    cfg.Admin,
		JWT:      cfg.JWT,
		Sessions: session.NewMemoryRegistry(),
		Logger:   logg,
	})
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}

	reg := prometheus.NewRegistry()
	return NewRouter(Deps{
		Config:     cfg,
		Logger:     logg,
		DB:         stubPinger{},
		Gatherer:   reg,
		HTTP:       metrics.NewHTTPMetrics(reg),
		Auth:       authSvc,
		Categories: cats,
		Products:   prods,
		Cart:       carts,
		Checkout:   checkoutSvc,
		Orders:     orderLog,
	})
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(t, testConfig())
	for _, path := range []string{"/health/live", "/health/ready"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestPublicCatalogRoutes(t *testing.T) {
	router := newTestRouter(t, testConfig())
	for _, path := range []string{
		"/api/v1/categories",
		"/api/v1/categories/laptops",
		"/api/v1/products",
		"/api/v1/products/airpods-pro-2",
		"/api/v1/products/airpods-pro-2/price?quantity=30",
	} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d: %s", path, resp.Code, resp.Body.String())
		}
	}
}

func TestCartRouteMintsSessionCookie(t *testing.T) {
	router := newTestRouter(t, testConfig())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var found bool
	for _, c := range resp.Result().Cookies() {
		if c.Name == middleware.CartSessionCookie && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected cart_session cookie on first request")
	}
}

func TestCartSessionCarriesAcrossRequests(t *testing.T) {
	router := newTestRouter(t, testConfig())

	add := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"product_id":3,"quantity":2}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, add)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	cookies := resp.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie got %d", len(cookies))
	}

	get := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	get.AddCookie(cookies[0])
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, get)
	if !strings.Contains(resp.Body.String(), `"item_count":2`) {
		t.Fatalf("expected cart to carry the line, got %s", resp.Body.String())
	}
}

func TestAdminRoutesRequireSession(t *testing.T) {
	router := newTestRouter(t, testConfig())
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/admin/v1/orders"},
		{http.MethodGet, "/api/admin/v1/categories"},
		{http.MethodPost, "/api/admin/v1/products"},
		{http.MethodPut, "/api/admin/v1/products/1/prices"},
		{http.MethodPost, "/api/admin/v1/uploads"},
		{http.MethodPost, "/api/admin/v1/auth/change-password"},
	} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(tc.method, tc.path, nil))
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 got %d", tc.method, tc.path, resp.Code)
		}
	}
}

func TestAdminLoginUnlocksAdminRoutes(t *testing.T) {
	router := newTestRouter(t, testConfig())

	login := httptest.NewRequest(http.MethodPost, "/api/admin/v1/auth/login", strings.NewReader(`{"username":"admin","password":"Password@123"}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, login)
	if resp.Code != http.StatusOK {
		t.Fatalf("login: expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var authCookie *http.Cookie
	for _, c := range resp.Result().Cookies() {
		if c.Name == middleware.AdminAuthCookie {
			authCookie = c
		}
	}
	if authCookie == nil {
		t.Fatal("expected admin_auth cookie")
	}

	list := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	list.AddCookie(authCookie)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, list)
	if resp.Code != http.StatusOK {
		t.Fatalf("orders: expected 200 got %d", resp.Code)
	}

	create := httptest.NewRequest(http.MethodPost, "/api/admin/v1/categories", strings.NewReader(`{"name":"Cables","slug":"cables"}`))
	create.AddCookie(authCookie)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, create)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("fallback writes: expected 503 got %d", resp.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, testConfig())
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `route="/api/v1/products"`) {
		t.Fatalf("expected request metric for products route, got %s", resp.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, testConfig())
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/cart", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}
	if got := resp.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("expected credentials allowed, got %q", got)
	}
}
