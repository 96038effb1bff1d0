//go:build property
// +build property

package config

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestServerConfigProperties tests server configuration properties
func TestServerConfigProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property: Port validation should reject invalid ranges
	properties.Property("port validation", prop.ForAll(
		func(port int) bool {
			err := validateServerConfig(&ServerConfig{Port: port, Host: "localhost"})
			if port >= 0 && port <= 65535 {
				return err == nil
			}
			return err != nil
		},
		gen.IntRange(-1000, 70000),
	))

	// Property: Hostnames made of safe characters are accepted
	properties.Property("safe hosts accepted", prop.ForAll(
		func(host string) bool {
			return validateServerConfig(&ServerConfig{Port: 8080, Host: host}) == nil
		},
		gen.RegexMatch(`^[a-zA-Z0-9.-]+$`),
	))

	properties.TestingRun(t)
}

// TestPathValidationProperties tests path validation properties
func TestPathValidationProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property: Any path escaping upwards is rejected
	properties.Property("traversal rejected", prop.ForAll(
		func(depth int, name string) bool {
			path := strings.Repeat("../", depth) + name
			return validatePath(path) != nil
		},
		gen.IntRange(1, 5),
		gen.Identifier(),
	))

	// Property: Relative paths of safe segments are accepted
	properties.Property("safe relative paths accepted", prop.ForAll(
		func(dir, file string) bool {
			return validatePath(fmt.Sprintf("%s/%s.yml", dir, file)) == nil
		},
		gen.Identifier(),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
