// Package identity resolves the caller's login and display name from the
// host OS account. The core treats identity resolution as an external
// collaborator it merely consumes; this is the default, out-of-the-box
// authority for that interface.
package identity

import (
	"fmt"
	"os"
	"os/user"
	"strings"

	"github.com/biffhq/biff/internal/model"
)

// Resolve looks up the current OS account on every call; server startup
// calls it once per process. DisplayName falls back to the login
// when the OS account record has no GECOS full name set.
func Resolve() (model.Identity, error) {
	u, err := user.Current()
	if err != nil {
		return model.Identity{}, fmt.Errorf("resolve identity: %w", err)
	}

	display := strings.TrimSpace(strings.SplitN(u.Name, ",", 2)[0])
	if display == "" {
		display = u.Username
	}
	return model.Identity{Login: u.Username, DisplayName: display}, nil
}

// Hostname reports the current host name for UserSession.Host, falling
// back to "unknown" rather than failing session startup.
func Hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
