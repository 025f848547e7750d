package commands

import (
	"github.com/crewforge/crewd/internal/utils/env"
)

// parseEnvSpecs parses --env flag values (KEY=VALUE or KEY inherited from the
// host environment).
func parseEnvSpecs(specs []string) (map[string]string, error) {
	return env.ParseSpecs(specs)
}
