package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// TestJWTSecret signs the HS256 tokens produced by GenerateTestJWT.
const TestJWTSecret = "test-secret-with-at-least-thirty-two-chars"

// GenerateTestJWT returns an HS256 access token shaped like the ones the
// hosted identity provider issues.
func GenerateTestJWT(t *testing.T, userID, email string, roles ...string) string {
	t.Helper()

	appRoles := make([]interface{}, len(roles))
	for i, r := range roles {
		appRoles[i] = r
	}
	claims := jwt.MapClaims{
		"sub":          userID,
		"email":        email,
		"role":         "authenticated",
		"aud":          "authenticated",
		"exp":          time.Now().Add(time.Hour).Unix(),
		"iat":          time.Now().Unix(),
		"app_metadata": map[string]interface{}{"roles": appRoles},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(TestJWTSecret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return token
}
