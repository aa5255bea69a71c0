package testutil

import (
	"github.com/agendapp/office-service/internal/auth"
)

// NewTestVerifier accepts tokens from GenerateTestJWT.
func NewTestVerifier() *auth.Verifier {
	return auth.NewVerifier(auth.Config{JWTSecret: TestJWTSecret, Audience: "authenticated"}, nil)
}

// TestPermissions mirrors config/permissions.yml closely enough for router
// tests.
func TestPermissions() auth.Permissions {
	all := []string{
		"patient:create", "patient:view", "patient:update", "patient:delete",
		"appointment:create", "appointment:view", "appointment:update", "appointment:delete",
		"clinical_record:create", "clinical_record:view", "clinical_record:update", "clinical_record:delete",
		"finance:create", "finance:view", "finance:update", "finance:delete",
		"dashboard:view", "profile:view", "profile:update",
		"template:create", "template:view", "template:update", "template:delete",
		"document:render", "document:view",
		"evolution:create", "evolution:view", "evolution:update", "evolution:delete",
		"address:lookup",
	}
	return auth.Permissions{
		"AUTHENTICATED": all,
		"ASSISTANT":     {"patient:view", "appointment:view"},
	}
}
