package auth

import "os"

// Config describes how bearer tokens issued by the hosted identity provider
// are verified. HS256 tokens are checked against JWTSecret; RS256 tokens need
// JWKSURL. Issuer and Audience are only enforced when set.
type Config struct {
	Issuer    string
	JWKSURL   string
	Audience  string
	JWTSecret string
}

// LoadConfig reads AUTH_ISSUER, AUTH_JWKS_URL, AUTH_AUD and AUTH_JWT_SECRET.
func LoadConfig() Config {
	return Config{
		Issuer:    os.Getenv("AUTH_ISSUER"),
		JWKSURL:   os.Getenv("AUTH_JWKS_URL"),
		Audience:  os.Getenv("AUTH_AUD"),
		JWTSecret: os.Getenv("AUTH_JWT_SECRET"),
	}
}
