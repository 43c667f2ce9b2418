package config

import (
	"os"
	"strings"
)

// EnvironmentExpander expands environment variable placeholders in raw configuration.
type EnvironmentExpander interface {
	Expand(input []byte) ([]byte, error)
}

// OsEnvironmentExpander expands ${VAR}, $VAR and ${VAR:-default} from the
// process environment. Unset variables without a default expand to "".
type OsEnvironmentExpander struct {
	lookup func(string) (string, bool)
}

// NewOsEnvironmentExpander creates an expander reading os.LookupEnv.
func NewOsEnvironmentExpander() *OsEnvironmentExpander {
	return &OsEnvironmentExpander{lookup: os.LookupEnv}
}

// Expand implements EnvironmentExpander. It never returns an error.
func (e *OsEnvironmentExpander) Expand(input []byte) ([]byte, error) {
	lookup := e.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return []byte(os.Expand(string(input), func(placeholder string) string {
		name, def, hasDefault := strings.Cut(placeholder, ":-")
		if value, ok := lookup(name); ok && value != "" {
			return value
		}
		if hasDefault {
			return def
		}
		return ""
	})), nil
}
