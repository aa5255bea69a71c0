package address

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newViaCEP(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 0)
}

func TestClient_Lookup(t *testing.T) {
	client := newViaCEP(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws/01310100/json/" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"cep":"01310-100","logradouro":"Avenida Paulista","complemento":"de 612 a 1510 - lado par","bairro":"Bela Vista","localidade":"São Paulo","uf":"SP"}`))
	})

	addr, err := client.Lookup(context.Background(), "01310-100")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if addr.PostalCode != "01310-100" || addr.Street != "Avenida Paulista" || addr.District != "Bela Vista" ||
		addr.City != "São Paulo" || addr.State != "SP" || addr.Number != "" {
		t.Errorf("Unexpected address %+v", addr)
	}
}

func TestClient_Lookup_NotFound(t *testing.T) {
	for _, body := range []string{`{"erro": true}`, `{"erro": "true"}`} {
		client := newViaCEP(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})
		if _, err := client.Lookup(context.Background(), "99999999"); !errors.Is(err, ErrPostalCodeNotFound) {
			t.Errorf("%s: expected ErrPostalCodeNotFound, got %v", body, err)
		}
	}
}

func TestClient_Lookup_InvalidCodeSkipsRequest(t *testing.T) {
	client := newViaCEP(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("Expected no request for an invalid code")
	})

	for _, cep := range []string{"", "1234", "123456789", "abcdefgh"} {
		if _, err := client.Lookup(context.Background(), cep); !errors.Is(err, ErrInvalidPostalCode) {
			t.Errorf("%q: expected ErrInvalidPostalCode, got %v", cep, err)
		}
	}
}

func TestClient_Lookup_UpstreamFailure(t *testing.T) {
	client := newViaCEP(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	if _, err := client.Lookup(context.Background(), "01310100"); !errors.Is(err, ErrLookupUnavailable) {
		t.Errorf("Expected ErrLookupUnavailable, got %v", err)
	}
}

func TestNormalizePostalCode(t *testing.T) {
	testCases := map[string]struct {
		digits string
		ok     bool
	}{
		"01310-100":  {"01310100", true},
		" 01.310100": {"01310100", true},
		"0131010":    {"0131010", false},
	}
	for in, want := range testCases {
		digits, ok := NormalizePostalCode(in)
		if digits != want.digits || ok != want.ok {
			t.Errorf("NormalizePostalCode(%q) = %q, %v", in, digits, ok)
		}
	}
}
