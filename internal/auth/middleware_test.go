package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type mockVerifier struct {
	ParseFunc func(tokenString string) (*Principal, error)
}

func (m *mockVerifier) ParseAndVerifyToken(tokenString string) (*Principal, error) {
	return m.ParseFunc(tokenString)
}

type mockAuthMetrics struct {
	failures []string
	checks   map[string]bool
}

func (m *mockAuthMetrics) RecordAuthFailure(ctx context.Context, reason string) {
	m.failures = append(m.failures, reason)
}

func (m *mockAuthMetrics) RecordPermissionCheck(ctx context.Context, permission string, durationMs float64, allowed bool) {
	if m.checks == nil {
		m.checks = map[string]bool{}
	}
	m.checks[permission] = allowed
}

// TestMiddleware_ValidToken runs a real HS256 token through the middleware.
func TestMiddleware_ValidToken(t *testing.T) {
	verifier := NewVerifier(Config{JWTSecret: testSecret}, nil)
	tokenString := signHS256(t, jwt.MapClaims{
		"sub":  "user-123",
		"role": "authenticated",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	called := false
	handler := Middleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		principal, ok := FromContext(r.Context())
		if !ok {
			t.Error("Expected principal in context, got none")
			return
		}
		if principal.UserID != "user-123" {
			t.Errorf("Expected UserID 'user-123', got '%s'", principal.UserID)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Error("Expected handler to be called")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
}

func TestMiddleware_Rejections(t *testing.T) {
	verifier := &mockVerifier{ParseFunc: func(string) (*Principal, error) { return nil, ErrInvalidToken }}

	testCases := []struct {
		name   string
		header string
		reason string
	}{
		{name: "missing header", header: "", reason: "missing_authorization"},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", reason: "invalid_header_format"},
		{name: "no token part", header: "Bearer", reason: "invalid_header_format"},
		{name: "invalid token", header: "Bearer not-a-jwt", reason: "invalid_token"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			metrics := &mockAuthMetrics{}
			called := false
			handler := MiddlewareWithMetrics(verifier, metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/patients", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if called {
				t.Error("Expected handler NOT to be called")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Expected status 401, got %d", rec.Code)
			}
			if len(metrics.failures) != 1 || metrics.failures[0] != tc.reason {
				t.Errorf("Expected failure reason %q, got %v", tc.reason, metrics.failures)
			}
		})
	}
}

func TestFromContext(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("Expected no principal in empty context")
	}

	principal := &Principal{UserID: "user-123", Roles: []string{"authenticated"}}
	got, ok := FromContext(ContextWithPrincipal(context.Background(), principal))
	if !ok || got != principal {
		t.Errorf("Expected stored principal, got %v", got)
	}
}

func TestHasPermission(t *testing.T) {
	perms := Permissions{
		"AUTHENTICATED": {"patient:view", "clinical_record:view", "document:render"},
		"ASSISTANT":     {"patient:view", "appointment:create"},
	}

	testCases := []struct {
		name       string
		roles      []string
		permission string
		expected   bool
	}{
		{name: "lower case provider role", roles: []string{"authenticated"}, permission: "clinical_record:view", expected: true},
		{name: "exact role", roles: []string{"ASSISTANT"}, permission: "appointment:create", expected: true},
		{name: "role without permission", roles: []string{"ASSISTANT"}, permission: "clinical_record:view", expected: false},
		{name: "permission in second role", roles: []string{"ASSISTANT", "authenticated"}, permission: "document:render", expected: true},
		{name: "no roles", roles: nil, permission: "patient:view", expected: false},
		{name: "unknown role", roles: []string{"anon"}, permission: "patient:view", expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasPermission(&Principal{Roles: tc.roles}, tc.permission, perms); got != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	perms := Permissions{
		"AUTHENTICATED": {"finance:view"},
		"ASSISTANT":     {"patient:view"},
	}

	serve := func(principal *Principal, per string, metrics *mockAuthMetrics) (bool, int) {
		called := false
		var recorder PermissionMetricsRecorder
		if metrics != nil {
			recorder = metrics
		}
		handler := RequirePermissionWithMetrics(per, perms, recorder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		}))
		req := httptest.NewRequest(http.MethodGet, "/incomes", nil)
		if principal != nil {
			req = req.WithContext(ContextWithPrincipal(req.Context(), principal))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return called, rec.Code
	}

	t.Run("granted", func(t *testing.T) {
		metrics := &mockAuthMetrics{}
		called, code := serve(&Principal{UserID: "u1", Roles: []string{"authenticated"}}, "finance:view", metrics)
		if !called || code != http.StatusOK {
			t.Errorf("Expected handler to run with 200, got called=%v code=%d", called, code)
		}
		if !metrics.checks["finance:view"] {
			t.Error("Expected allowed check to be recorded")
		}
	})

	t.Run("forbidden", func(t *testing.T) {
		metrics := &mockAuthMetrics{}
		called, code := serve(&Principal{UserID: "u2", Roles: []string{"ASSISTANT"}}, "finance:view", metrics)
		if called || code != http.StatusForbidden {
			t.Errorf("Expected 403, got called=%v code=%d", called, code)
		}
		if allowed, ok := metrics.checks["finance:view"]; !ok || allowed {
			t.Error("Expected denied check to be recorded")
		}
	})

	t.Run("no principal", func(t *testing.T) {
		called, code := serve(nil, "finance:view", nil)
		if called || code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got called=%v code=%d", called, code)
		}
	})
}
