package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Owner sources for route ownership checks.
const (
	OwnerFromQuery = "query"
	OwnerFromBody  = "body"
)

// RouteOverride changes the access policy of one route. Nil fields keep the
// built-in default.
type RouteOverride struct {
	RequiresAuth           *bool  `yaml:"requires_auth"`
	RequiresOwnershipMatch *bool  `yaml:"requires_ownership_match"`
	OwnerFrom              string `yaml:"owner_from,omitempty"`
}

// PolicyFile is the on-disk shape of ROUTE_POLICY_FILE. Keys are route
// patterns such as "GET /budgets".
type PolicyFile struct {
	Routes map[string]RouteOverride `yaml:"routes"`
}

// LoadRoutePolicy reads route overrides from path. An empty path yields no
// overrides.
func LoadRoutePolicy(path string) (map[string]RouteOverride, error) {
	if path == "" {
		return map[string]RouteOverride{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route policy: %w", err)
	}

	var file PolicyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse route policy: %w", err)
	}

	for pattern, override := range file.Routes {
		switch override.OwnerFrom {
		case "", OwnerFromQuery, OwnerFromBody:
		default:
			return nil, fmt.Errorf("route %q: owner_from must be %q or %q", pattern, OwnerFromQuery, OwnerFromBody)
		}
	}

	if file.Routes == nil {
		file.Routes = map[string]RouteOverride{}
	}
	return file.Routes, nil
}
