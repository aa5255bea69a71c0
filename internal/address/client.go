package address

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/agendapp/office-service/internal/patient"
)

var (
	ErrInvalidPostalCode  = errors.New("postal code must have 8 digits")
	ErrPostalCodeNotFound = errors.New("postal code not found")
	ErrLookupUnavailable  = errors.New("postal code lookup unavailable")
)

// viaCEPResponse is the JSON body of GET /ws/{cep}/json/. Unknown codes come
// back with status 200 and "erro" set to true or "true".
type viaCEPResponse struct {
	CEP         string      `json:"cep"`
	Logradouro  string      `json:"logradouro"`
	Complemento string      `json:"complemento"`
	Bairro      string      `json:"bairro"`
	Localidade  string      `json:"localidade"`
	UF          string      `json:"uf"`
	Erro        interface{} `json:"erro"`
}

// Lookup resolves a Brazilian postal code (CEP) into a partial address.
type Lookup interface {
	Lookup(ctx context.Context, cep string) (*patient.Address, error)
}

var _ Lookup = (*Client)(nil)

type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient talks to a ViaCEP compatible service at baseURL. A zero timeout
// means 5 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) Lookup(ctx context.Context, cep string) (*patient.Address, error) {
	digits, ok := NormalizePostalCode(cep)
	if !ok {
		return nil, ErrInvalidPostalCode
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ws/"+digits+"/json/", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build lookup request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return nil, ErrInvalidPostalCode
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrLookupUnavailable, resp.StatusCode)
	}

	var body viaCEPResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupUnavailable, err)
	}
	if isTrue(body.Erro) {
		return nil, ErrPostalCodeNotFound
	}

	return &patient.Address{
		PostalCode: formatPostalCode(digits),
		Street:     body.Logradouro,
		Complement: body.Complemento,
		District:   body.Bairro,
		City:       body.Localidade,
		State:      body.UF,
	}, nil
}

// NormalizePostalCode strips everything but digits and reports whether
// exactly 8 remain.
func NormalizePostalCode(cep string) (string, bool) {
	var b strings.Builder
	for _, r := range cep {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String(), b.Len() == 8
}

func formatPostalCode(digits string) string {
	return digits[:5] + "-" + digits[5:]
}

func isTrue(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true"
	default:
		return false
	}
}
