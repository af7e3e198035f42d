package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leogoca00/hangar-sprc/internal/config"
	"github.com/leogoca00/hangar-sprc/internal/hangar"
	"github.com/leogoca00/hangar-sprc/internal/middleware"
	"github.com/leogoca00/hangar-sprc/internal/models"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		App:       config.AppConfig{Env: "test", Port: "0", Persistence: config.PersistenceMemory, Timezone: "UTC"},
		JWT:       config.JWTConfig{Secret: "main-test-secret-0123456789abcdef", Expiry: time.Hour},
		RateLimit: config.RateLimitConfig{Requests: 100, Window: time.Minute},
	}
}

func TestOpenBackend_Memory(t *testing.T) {
	logger, _ := test.NewNullLogger()
	be, err := openBackend(context.Background(), testConfig(), logger)
	require.NoError(t, err)
	assert.Empty(t, be.opts)
	assert.NotNil(t, be.users)
	be.cleanup(context.Background())
}

func TestConnectNotifier_Disabled(t *testing.T) {
	logger, _ := test.NewNullLogger()
	n, disconnect, err := connectNotifier(testConfig(), logger)
	require.NoError(t, err)
	assert.Nil(t, n)
	disconnect()
}

func TestNewRouter_RegisterAndUse(t *testing.T) {
	cfg := testConfig()
	logger, hook := test.NewNullLogger()
	be, err := openBackend(context.Background(), cfg, logger)
	require.NoError(t, err)

	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	store := hangar.NewStore(&hangar.FixedClock{T: now}, hangar.WithLogger(logger))
	_, err = store.SeedFleet(context.Background())
	require.NoError(t, err)

	srv := httptest.NewServer(newRouter(cfg, logger, store, be.users))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))

	resp, err = http.Get(srv.URL + "/api/dashboard")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// The first account bootstraps the supervisor role
	body, err := json.Marshal(models.RegisterRequest{
		Username: "jefe",
		Email:    "jefe@sprc.example",
		Password: "password123",
		FullName: "Jefe de Taller",
		Role:     models.RoleSupervisor,
	})
	require.NoError(t, err)
	resp, err = http.Post(srv.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	var login models.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	req, err := http.NewRequest("GET", srv.URL+"/api/dashboard", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	var dash hangar.DashboardStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&dash))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 101, dash.Availability.Total)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Request handled", hook.LastEntry().Message)
}

func TestNewRouter_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Requests = 2
	logger, _ := test.NewNullLogger()
	be, err := openBackend(context.Background(), cfg, logger)
	require.NoError(t, err)
	store := hangar.NewStore(&hangar.FixedClock{T: time.Now()}, hangar.WithLogger(logger))

	handler := newRouter(cfg, logger, store, be.users)
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, http.StatusTooManyRequests}, codes)
}
