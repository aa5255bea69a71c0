package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

// Principal is the authenticated practitioner (or assistant) behind a request.
// UserID doubles as the owner id of every record they create.
type Principal struct {
	UserID string
	Email  string
	Roles  []string
	Claims jwt.MapClaims
}

var (
	ErrNoToken          = errors.New("no token provided")
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidIssuer    = errors.New("invalid issuer")
	ErrInvalidAudience  = errors.New("invalid audience")
	ErrMissingSub       = errors.New("missing sub claim")
	ErrUnsupportedToken = errors.New("unsupported signing method")
)

// TokenVerifier is what the HTTP middleware needs from a Verifier.
type TokenVerifier interface {
	ParseAndVerifyToken(tokenString string) (*Principal, error)
}

type Verifier struct {
	cfg  Config
	jwks *JWKS
}

var _ TokenVerifier = (*Verifier)(nil)

// NewVerifier builds a verifier. jwks may be nil when only HS256 tokens are
// expected.
func NewVerifier(cfg Config, jwks *JWKS) *Verifier {
	return &Verifier{cfg: cfg, jwks: jwks}
}

func (v *Verifier) keyFunc(t *jwt.Token) (interface{}, error) {
	switch t.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if v.cfg.JWTSecret == "" {
			return nil, ErrUnsupportedToken
		}
		return []byte(v.cfg.JWTSecret), nil
	case *jwt.SigningMethodRSA:
		if v.jwks == nil {
			return nil, ErrUnsupportedToken
		}
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrInvalidToken
		}
		return v.jwks.Get(kid)
	default:
		return nil, ErrUnsupportedToken
	}
}

// ParseAndVerifyToken checks signature, expiry, issuer and audience and
// returns the Principal carried by the token.
func (v *Verifier) ParseAndVerifyToken(tokenString string) (*Principal, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrNoToken
	}
	parsed, err := jwt.Parse(tokenString, v.keyFunc)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if v.cfg.Issuer != "" && !claims.VerifyIssuer(v.cfg.Issuer, true) {
		return nil, ErrInvalidIssuer
	}
	if v.cfg.Audience != "" && !claims.VerifyAudience(v.cfg.Audience, true) {
		return nil, ErrInvalidAudience
	}
	if !claims.VerifyExpiresAt(jwt.TimeFunc().Unix(), true) {
		return nil, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrMissingSub
	}
	email, _ := claims["email"].(string)

	return &Principal{
		UserID: sub,
		Email:  email,
		Roles:  rolesFromClaims(claims),
		Claims: claims,
	}, nil
}

// rolesFromClaims collects the top level "role" claim and any
// app_metadata.roles entries, without duplicates.
func rolesFromClaims(claims jwt.MapClaims) []string {
	var roles []string
	seen := map[string]bool{}
	add := func(r string) {
		if r != "" && !seen[r] {
			seen[r] = true
			roles = append(roles, r)
		}
	}
	if r, ok := claims["role"].(string); ok {
		add(r)
	}
	if md, ok := claims["app_metadata"].(map[string]interface{}); ok {
		if rr, ok := md["roles"].([]interface{}); ok {
			for _, r := range rr {
				if s, ok := r.(string); ok {
					add(s)
				}
			}
		}
	}
	return roles
}
