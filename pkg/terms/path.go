package terms

import (
	"os"
	"path/filepath"
	"strings"
)

// EnvTermsPath overrides the dictionary location. It is read on every
// resolution so tests can redirect storage without a restart.
const EnvTermsPath = "TERM_FIXER_TERMS_PATH"

// DefaultPath is ~/.claude/data/product-terms.json.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".claude", "data", "product-terms.json")
}

// ResolvePath returns the dictionary path from the environment or the default.
func ResolvePath() string {
	if v := strings.TrimSpace(os.Getenv(EnvTermsPath)); v != "" {
		return ExpandHome(v)
	}
	return DefaultPath()
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
