package auth_api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wedding-rsvp/internal/auth"
	"wedding-rsvp/internal/auth/auth_api"
	"wedding-rsvp/internal/logger"
	"wedding-rsvp/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T, limiter *auth.LoginLimiter) (http.Handler, *auth.TokenIssuer) {
	issuer := auth.NewTokenIssuer("test-secret", 8*time.Hour)
	h := &auth_api.Handler{
		Auth:       auth.StaticCredentials{Username: "admin", Password: "adminpassword"},
		Tokens:     issuer,
		Limiter:    limiter,
		CookieName: "admin_token",
		Logger:     logger.Discard(),
	}
	r := chi.NewRouter()
	r.Route("/api/admin", h.RegisterRoutes)
	return r, issuer
}

func login(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.10:5555"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestLoginSuccessSetsTokenAndCookie(t *testing.T) {
	router, issuer := setupRouter(t, nil)

	rec := login(router, `{"username":"admin","password":"adminpassword"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotEmpty(t, resp.Token)

	claims, err := issuer.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "admin_token", cookies[0].Name)
	assert.Equal(t, resp.Token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestLoginWrongPassword(t *testing.T) {
	router, _ := setupRouter(t, nil)

	rec := login(router, `{"username":"admin","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Invalid credentials"}`, rec.Body.String())

	rec = login(router, `{"username":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = login(router, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginThrottle(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	router, _ := setupRouter(t, auth.NewLoginLimiter(client, 2, time.Minute))

	assert.Equal(t, http.StatusUnauthorized, login(router, `{"username":"admin","password":"x"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, login(router, `{"username":"admin","password":"y"}`).Code)

	rec := login(router, `{"username":"admin","password":"adminpassword"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	mr.FastForward(2 * time.Minute)
	assert.Equal(t, http.StatusOK, login(router, `{"username":"admin","password":"adminpassword"}`).Code)

	n, err := client.Exists(context.Background(), "admin_login_fail:192.0.2.10").Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLogoutClearsCookie(t *testing.T) {
	router, _ := setupRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/logout", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "admin_token", cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
