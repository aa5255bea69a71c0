package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agendapp/office-service/internal/auth"
	"github.com/gorilla/mux"
)

// Request is a handler call made directly, without a router.
type Request struct {
	Method    string
	Path      string
	Body      interface{}
	Vars      map[string]string
	Principal *auth.Principal
}

// Serve runs h for req and returns the recorded response.
func Serve(t *testing.T, h http.HandlerFunc, req Request) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if req.Body != nil {
		if s, ok := req.Body.(string); ok {
			body.WriteString(s)
		} else if err := json.NewEncoder(&body).Encode(req.Body); err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
	}

	r := httptest.NewRequest(req.Method, req.Path, &body)
	r.Header.Set("Content-Type", "application/json")
	if req.Vars != nil {
		r = mux.SetURLVars(r, req.Vars)
	}
	if req.Principal != nil {
		r = r.WithContext(auth.ContextWithPrincipal(r.Context(), req.Principal))
	}

	rec := httptest.NewRecorder()
	h(rec, r)
	return rec
}

// DecodeJSON unmarshals the response body into out.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
}

// ErrorBody is the JSON error envelope every handler writes.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
