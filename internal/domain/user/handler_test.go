package user

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"salonbooking/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_RegisterLoginAndStaff(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, tokens := newTestService(t)
	h := NewHandler(svc)

	r := gin.New()
	v1 := r.Group("/api/v1")
	h.RegisterPublicRoutes(v1)
	protected := v1.Group("", middleware.JWTAuth(tokens))
	h.RegisterProtectedRoutes(protected)
	h.RegisterAdminRoutes(protected.Group("/admin", middleware.AdminOnly()))

	post := func(path, token string, body any) *httptest.ResponseRecorder {
		buf, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := post("/api/v1/auth/register", "", gin.H{"name": "Müşteri Can", "phone_number": "5551234567", "password": "secret"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "password_hash")
	assert.NotContains(t, w.Body.String(), "PasswordHash")

	w = post("/api/v1/auth/register", "", gin.H{"name": "Other", "phone_number": "5551234567", "password": "secret"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "PHONE_TAKEN")

	w = post("/api/v1/auth/register", "", gin.H{"name": "X"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post("/api/v1/auth/login", "", gin.H{"phone_number": "5551234567", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post("/api/v1/auth/login", "", gin.H{"phone_number": "5551234567", "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Data AuthResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.Data.Token)

	staffBody := gin.H{"name": "Ahmet Makas", "phone_number": "5550000001", "password": "pass1", "specialty": "Fade Expert"}
	w = post("/api/v1/admin/staff", login.Data.Token, staffBody)
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminToken, err := tokens.GenerateToken("admin-1", string(RoleAdmin))
	require.NoError(t, err)
	w = post("/api/v1/admin/staff", adminToken, staffBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/staff", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ahmet Makas")
	assert.NotContains(t, rec.Body.String(), "Müşteri Can")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Data.Token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Müşteri Can")
}
