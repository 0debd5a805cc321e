package build

import "fmt"

// Set through -ldflags "-X github.com/rohmanhakim/fic-roulette/internal/build.Version=…".
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// FullVersion returns the version string with commit hash appended.
// Format: "Version+Commit" (e.g., "1.0.0+abc123")
func FullVersion() string {
	return Version + "+" + Commit
}

// Summary is the one-line banner printed by the version command.
func Summary() string {
	return fmt.Sprintf("fic-roulette %s (built %s)", FullVersion(), BuildTime)
}
