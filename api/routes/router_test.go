package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/newsletters"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/taxes"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", APIPrefix: "/api/v1", CORSOrigins: []string{"http://localhost:3000"}},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "storefront", AdminRole: "admin", ExpirationMinutes: 60},
		Storage: config.StorageConfig{
			MaxUploadMB: 5,
		},
		RateLimit: config.RateLimitConfig{
			OrderIdempotencyTTL: time.Hour,
		},
	}
}

func bearer(t *testing.T, cfg *config.Config, email string, roles ...string) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.AccessTokenPayload{Email: email, Roles: roles})
	require.NoError(t, err)
	return "Bearer " + token
}

func serve(handler http.Handler, method, path, authz, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestHealthEndpoints(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(cfg, logger.Nop(), Deps{DB: stubPinger{}}, Services{})

	live := serve(router, http.MethodGet, "/health/live", "", "")
	require.Equal(t, http.StatusOK, live.Code)
	assert.Equal(t, "test", live.Header().Get("X-Storefront-Env"))

	ready := serve(router, http.MethodGet, "/health/ready", "", "")
	require.Equal(t, http.StatusOK, ready.Code)
	var body struct {
		Data struct {
			Checks map[string]string `json:"checks"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(ready.Body.Bytes(), &body))
	assert.Equal(t, "up", body.Data.Checks["db"])
	assert.Equal(t, "disabled", body.Data.Checks["redis"])
	assert.Equal(t, "disabled", body.Data.Checks["storage"])
}

func TestReadyFailsWhenDependencyDown(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(cfg, logger.Nop(), Deps{DB: stubPinger{}, Storage: stubPinger{err: errors.New("bucket gone")}}, Services{})

	resp := serve(router, http.MethodGet, "/health/ready", "", "")
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Contains(t, resp.Body.String(), "bucket gone")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(cfg, logger.Nop(), Deps{}, Services{})

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/cart/"},
		{http.MethodPost, "/api/v1/wishlist/find"},
		{http.MethodPost, "/api/v1/order/"},
		{http.MethodPost, "/api/v1/clients/findUserDetails"},
		{http.MethodPost, "/api/v1/categories/createCategory"},
		{http.MethodGet, "/api/v1/news-letters/"},
	}
	for _, tc := range cases {
		resp := serve(router, tc.method, tc.path, "", "{}")
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 got %d", tc.method, tc.path, resp.Code)
		}
	}
}

func TestAdminRoutesRejectCustomers(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(cfg, logger.Nop(), Deps{}, Services{})
	customer := bearer(t, cfg, "ana@example.com")

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/cart/"},
		{http.MethodGet, "/api/v1/order/"},
		{http.MethodPost, "/api/v1/tax/"},
		{http.MethodPost, "/api/v1/shipping/saveData"},
		{http.MethodGet, "/api/v1/products/productsForAdmin"},
		{http.MethodPost, "/api/v1/filters/delete"},
	}
	for _, tc := range cases {
		resp := serve(router, tc.method, tc.path, customer, "{}")
		if resp.Code != http.StatusForbidden {
			t.Fatalf("%s %s: expected 403 got %d", tc.method, tc.path, resp.Code)
		}
	}
}

func TestTaxRoutesEndToEnd(t *testing.T) {
	cfg := testConfig()
	taxSvc, err := taxes.NewService(taxes.NewRepository(dbtest.Open(t)))
	require.NoError(t, err)
	router := NewRouter(cfg, logger.Nop(), Deps{}, Services{Taxes: taxSvc})
	admin := bearer(t, cfg, "Admin@Example.com", "admin")

	created := serve(router, http.MethodPost, "/api/v1/tax/", admin, `{"taxname":"VAT","percentage":"21"}`)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())

	serve(router, http.MethodPost, "/api/v1/tax/", admin, `{"taxname":"Eco","percentage":"1.5","isActive":false}`)

	active := serve(router, http.MethodGet, "/api/v1/tax/activeTaxes", "", "")
	require.Equal(t, http.StatusOK, active.Code)
	var body struct {
		Data []struct {
			TaxName  string `json:"taxname"`
			IsActive bool   `json:"isActive"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(active.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "VAT", body.Data[0].TaxName)
	assert.True(t, body.Data[0].IsActive)
}

func TestNewsletterSubscribeIsPublic(t *testing.T) {
	cfg := testConfig()
	svc, err := newsletters.NewService(newsletters.NewRepository(dbtest.Open(t)))
	require.NoError(t, err)
	router := NewRouter(cfg, logger.Nop(), Deps{}, Services{Newsletters: svc})

	first := serve(router, http.MethodPost, "/api/v1/news-letters/", "", `{"email":"Reader@Example.com"}`)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	dup := serve(router, http.MethodPost, "/api/v1/news-letters/", "", `{"email":"reader@example.com"}`)
	assert.Equal(t, http.StatusConflict, dup.Code)

	bad := serve(router, http.MethodPost, "/api/v1/news-letters/", "", `{"email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestRootPrefixMountsAtRoot(t *testing.T) {
	cfg := testConfig()
	cfg.App.APIPrefix = "/"
	router := NewRouter(cfg, logger.Nop(), Deps{}, Services{})

	resp := serve(router, http.MethodPost, "/cart/find", "", "{}")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestMetricsEndpointExposesRouteCounters(t *testing.T) {
	cfg := testConfig()
	reg := prometheus.NewRegistry()
	router := NewRouter(cfg, logger.Nop(), Deps{Registry: reg}, Services{})

	serve(router, http.MethodGet, "/health/live", "", "")
	resp := serve(router, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `http_requests_total{method="GET",route="/health/live",status="200"} 1`)
}

func TestCartRoutesScopeLinesToCaller(t *testing.T) {
	cfg := testConfig()
	conn := dbtest.Open(t)
	productRepo := products.NewRepository(conn)
	price := decimal.RequireFromString("12.5")
	lamp := &models.Product{Name: "Lamp", Variations: []models.Variation{{ID: "lamp-s", SKU: "L-S", Name: "Small", Price: &price}}}
	require.NoError(t, productRepo.Create(context.Background(), lamp))

	cartSvc, err := cart.NewService(cart.ServiceParams{Repo: cart.NewRepository(conn), Products: productRepo})
	require.NoError(t, err)
	router := NewRouter(cfg, logger.Nop(), Deps{}, Services{Cart: cartSvc})

	ana := bearer(t, cfg, "ana@example.com")
	bo := bearer(t, cfg, "bo@example.com")
	line := `{"product":"` + lamp.ID.String() + `","variation":"lamp-s","quantity":2,"username":"bo@example.com"}`

	added := serve(router, http.MethodPost, "/api/v1/cart/", ana, line)
	require.Equal(t, http.StatusCreated, added.Code, added.Body.String())

	dup := serve(router, http.MethodPost, "/api/v1/cart/", ana, line)
	assert.Equal(t, http.StatusConflict, dup.Code)

	missing := serve(router, http.MethodPost, "/api/v1/cart/", ana, `{"product":"`+lamp.ID.String()+`","variation":"nope","quantity":1}`)
	assert.Equal(t, http.StatusNotFound, missing.Code)

	type lines struct {
		Data []struct {
			Username    string `json:"username"`
			VariationID string `json:"variationId"`
			Quantity    int    `json:"quantity"`
		} `json:"data"`
	}

	var mine lines
	found := serve(router, http.MethodPost, "/api/v1/cart/find", ana, "{}")
	require.Equal(t, http.StatusOK, found.Code)
	require.NoError(t, json.Unmarshal(found.Body.Bytes(), &mine))
	require.Len(t, mine.Data, 1)
	assert.Equal(t, "ana@example.com", mine.Data[0].Username)
	assert.Equal(t, "lamp-s", mine.Data[0].VariationID)
	assert.Equal(t, 2, mine.Data[0].Quantity)

	var theirs lines
	other := serve(router, http.MethodPost, "/api/v1/cart/find", bo, "{}")
	require.Equal(t, http.StatusOK, other.Code)
	require.NoError(t, json.Unmarshal(other.Body.Bytes(), &theirs))
	assert.Empty(t, theirs.Data)
}
