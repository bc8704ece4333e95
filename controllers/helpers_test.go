package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopsift/shopsift-api/middleware"
	"github.com/shopsift/shopsift-api/services"
	"github.com/shopsift/shopsift-api/templates"
	"github.com/shopsift/shopsift-api/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testEnv holds the database and service mocks behind a test router
type testEnv struct {
	db        *gorm.DB
	generator *services.MockDraftGenerator
	archive   *services.MockArchiveService
	mailer    *services.MockMailer
	events    *services.MockEventProducer
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testutil.TestConfig()
	env := &testEnv{
		db:        testutil.SetupTestDB(t),
		generator: services.NewMockDraftGenerator(`{"category": "Order Status", "draft": "Hi! Your order ships tomorrow."}`),
		archive:   services.NewMockArchiveService(),
		mailer:    services.NewMockMailer(),
		events:    services.NewMockEventProducer(),
	}
	env.generator.SetAsMockForTesting()
	env.archive.SetAsMockForTesting()
	env.mailer.SetAsMockForTesting()
	env.events.SetAsMockForTesting()

	t.Cleanup(func() {
		services.SetDraftGenerator(nil)
		services.SetArchiveService(nil)
		services.SetMailer(nil)
		services.SetEventProducer(&services.KafkaEventProducer{})
		services.SetUserInfoProvider(nil)
	})
	return env
}

// setupTestRouter mirrors the production routes with userID as the
// authenticated user. An empty userID leaves requests unauthenticated.
func setupTestRouter(userID string) *gin.Engine {
	router := gin.New()
	router.SetHTMLTemplate(templates.MustLoad())

	auth := func(c *gin.Context) {
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false})
			return
		}
		testutil.MockAuth(userID)(c)
	}

	router.POST("/api/incoming-email", IncomingEmail)
	router.POST("/api/send-reply", auth, middleware.RequireMerchant(), SendReply)

	v1 := router.Group("/api/v1")
	v1.GET("/health", HealthCheck)
	v1.GET("/database/status", DatabaseStatus)
	v1.POST("/merchants", auth, CreateMerchant)

	merchant := v1.Group("", auth, middleware.RequireMerchant())
	merchant.GET("/merchants/me", GetMyMerchant)
	merchant.PUT("/merchants/me/policies", UpdateMyPolicies)
	merchant.PUT("/merchants/me/settings", UpdateMySettings)
	merchant.GET("/tickets", ListTickets)
	merchant.GET("/tickets/:id", GetTicket)
	merchant.PUT("/tickets/:id/draft", UpdateTicketDraft)
	merchant.GET("/stats", GetStats)

	dashboard := router.Group("/dashboard", middleware.NoCache())
	dashboard.POST("/session", auth, CreateSession)
	dashboard.POST("/signout", SignOut)
	pages := dashboard.Group("", auth, middleware.RequireMerchantPage())
	pages.GET("", DashboardPage)
	pages.POST("/tickets/:id/draft", DashboardSaveDraft)
	pages.POST("/tickets/:id/send", DashboardSendReply)
	pages.GET("/policies", PoliciesPage)
	pages.POST("/policies", UpdatePoliciesForm)
	pages.GET("/settings", SettingsPage)
	pages.POST("/settings", UpdateSettingsForm)

	return router
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func doForm(router *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func doGet(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
