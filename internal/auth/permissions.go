package auth

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Permissions maps role -> []permission
type Permissions map[string][]string

// LoadPermissions reads a permissions.yml file of the form
//
//	roles:
//	  PROFESSIONAL: [patient:view, ...]
func LoadPermissions(path string) (Permissions, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read permissions file: %w", err)
	}
	var pf struct {
		Roles map[string][]string `yaml:"roles"`
	}
	if err := yaml.Unmarshal(b, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse permissions file: %w", err)
	}
	return Permissions(pf.Roles), nil
}
