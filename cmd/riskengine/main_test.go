package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraudguard/riskengine/internal/alerts"
	"github.com/fraudguard/riskengine/internal/geofence"
	"github.com/fraudguard/riskengine/internal/history"
	"github.com/fraudguard/riskengine/internal/risk"
	"github.com/fraudguard/riskengine/pkg/config"
	"github.com/fraudguard/riskengine/pkg/logger"
	"github.com/fraudguard/riskengine/pkg/middleware"
	redispkg "github.com/fraudguard/riskengine/pkg/redis"
)

const testJWTSecret = "test-secret-key-for-testing-only"

func init() {
	gin.SetMode(gin.TestMode)
	_ = logger.Init("development")
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:        "8080",
			Environment: "development",
			ServiceName: "riskengine",
			CORSOrigins: "http://localhost:3000",
		},
		JWT: config.JWTConfig{Secret: testJWTSecret},
	}
}

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db, _ := redismock.NewClientMock()
	redisClient := redispkg.NewFromClient(db)

	engine := risk.NewEngine(history.NewMemoryStore(), geofence.NewIndex())
	riskHandler := risk.NewHandler(engine)
	alertHandler := alerts.NewHandler(alerts.NewRepository(nil))

	return buildRouter(testConfig(), nil, redisClient, nil, riskHandler, alertHandler)
}

func adminToken(t *testing.T) string {
	t.Helper()
	claims := middleware.Claims{
		UserID: "admin-1",
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_HealthzReportsDependencies(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	// With no live database the service reports unhealthy but still
	// answers with the full check breakdown.
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "database")
}

func TestRouter_SecurityHeadersApplied(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.NotEmpty(t, w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_SubmitEventRouteWired(t *testing.T) {
	router := testRouter(t)

	body := bytes.NewBufferString(`{
		"subject_id": "subject-1",
		"type": "transaction",
		"channel": "card",
		"amount": 100,
		"timestamp": "2026-03-10T14:00:00Z"
	}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRouter_ZoneAdminRequiresAuth(t *testing.T) {
	router := testRouter(t)
	body := `{"id":"z1","name":"Test","latitude":10,"longitude":10,"radius_km":1,"type":"safe"}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/zones", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/zones", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRouter_ZoneAdminRejectsNonAdmin(t *testing.T) {
	router := testRouter(t)

	claims := middleware.Claims{
		UserID: "user-1",
		Role:   "analyst",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/zones/z1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
