package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("admin", "secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	subject, err := ValidateToken(token, "secret")
	if err != nil {
		t.Fatalf("ValidateToken returned error: %v", err)
	}
	if subject != "admin" {
		t.Errorf("subject = %q, want admin", subject)
	}

	if _, err := ValidateToken(token, "wrong-secret"); err == nil {
		t.Error("expected validation failure with wrong secret")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := GenerateToken("admin", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	if _, err := ValidateToken(token, "secret"); err == nil {
		t.Error("expected expired token to fail validation")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	if !CheckPassword("hunter2", hash) {
		t.Error("correct password rejected")
	}
	if CheckPassword("wrong", hash) {
		t.Error("wrong password accepted")
	}
}

func TestMiddleware(t *testing.T) {
	hash, _ := HashPassword("pw")
	cfg := Config{JWTSecret: "secret", AdminPasswordHash: hash, TokenTTL: time.Hour}

	var gotSubject string
	handler := Middleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject, _ = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	// Missing header.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/ingest", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing header: status = %d", rec.Code)
	}

	// Malformed header.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/ingest", nil)
	req.Header.Set("Authorization", "Token abc")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("malformed header: status = %d", rec.Code)
	}

	// Valid token.
	token, err := GenerateToken("admin", cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/admin/ingest", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("valid token: status = %d", rec.Code)
	}
	if gotSubject != "admin" {
		t.Errorf("subject in context = %q", gotSubject)
	}

	// Auth not configured.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/admin/ingest", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	Middleware(Config{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run when auth is unconfigured")
	})).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unconfigured auth: status = %d", rec.Code)
	}
}
