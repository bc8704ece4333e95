package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopsift/shopsift-api/middleware"
	"github.com/shopsift/shopsift-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRouter builds the production router with every request authenticated
// as userID
func setupRouter(t *testing.T, userID string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testutil.TestConfig()
	return newRouter(cfg, testutil.MockAuth(userID), nil)
}

// TestHealthEndpointIntegration tests the /api/v1/health endpoint with full routing
func TestHealthEndpointIntegration(t *testing.T) {
	router := setupRouter(t, "auth0|support")

	req, _ := http.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "Expected status 200 OK")

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err, "Response should be valid JSON")
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "ShopSift API is running", response["message"])
}

// TestHealthEndpointMethod tests that only GET method is routed
func TestHealthEndpointMethod(t *testing.T) {
	router := setupRouter(t, "auth0|support")

	for _, method := range []string{"POST", "PUT", "DELETE"} {
		req, _ := http.NewRequest(method, "/api/v1/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code, method+" should not be routed")
	}
}

// TestAPIV1Prefix tests that the endpoint requires /api/v1 prefix
func TestAPIV1Prefix(t *testing.T) {
	router := setupRouter(t, "auth0|support")

	req, _ := http.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code, "Endpoint should require /api/v1 prefix")
}

func TestCORSHeaders(t *testing.T) {
	cfg := testutil.TestConfig()
	cfg.CORSAllowedOrigins = []string{"https://app.shopsift.app"}
	router := newRouter(cfg, testutil.MockAuth("auth0|support"), nil)

	req, _ := http.NewRequest("OPTIONS", "/api/v1/stats", nil)
	req.Header.Set("Origin", "https://app.shopsift.app")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "https://app.shopsift.app", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestWebhookRateLimit(t *testing.T) {
	testutil.SetupTestDB(t)
	cfg := testutil.TestConfig()
	router := newRouter(cfg, testutil.MockAuth("auth0|support"), middleware.NewRateLimiter(0.001, 1))

	post := func() int {
		form := url.Values{"from": {"jane@x.com"}, "to": {"nobody@inbound.shopsift.app"}, "text": {"hi"}}
		req, _ := http.NewRequest("POST", "/api/incoming-email", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusNotFound, post(), "first request reaches the handler")
	assert.Equal(t, http.StatusTooManyRequests, post())
}

func TestDashboardRequiresStore(t *testing.T) {
	testutil.SetupTestDB(t)
	router := setupRouter(t, "auth0|nobody")

	req, _ := http.NewRequest("GET", "/dashboard", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
}
