package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/minesarena/server/config"
	"github.com/minesarena/server/internal/admin"
)

func newTestHandler() (*gin.Engine, *Handler) {
	gin.SetMode(gin.TestMode)
	auth := admin.NewAuth("admin", "s3cret", "signing-key")
	h := NewHandler(auth, config.GameSettings{GridSize: 10, MinesCount: 18, TurnTimeLimit: 30, MinRevealsToPass: 1})
	r := gin.New()
	RegisterRoutes(r, h)
	return r, h
}

func TestHandler_Health(t *testing.T) {
	r, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body)
	}
}

func TestHandler_GetConfig(t *testing.T) {
	r, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["gridSize"].(float64) != 10 {
		t.Errorf("expected gridSize 10, got %v", body["gridSize"])
	}
}

func TestHandler_AdminLoginSuccess(t *testing.T) {
	r, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(`{"username":"admin","password":"s3cret"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["success"] != true || body["token"] == "" {
		t.Errorf("expected success with a token, got %v", body)
	}
}

func TestHandler_AdminLoginRejectsBadCredentials(t *testing.T) {
	r, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(`{"username":"admin","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
