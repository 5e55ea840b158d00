package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"cupspdf/internal/identity"
)

// NewUser creates a home directory under a temp dir and returns an identity
// owned by the current process, so ownership changes succeed without root.
func NewUser(t testing.TB, name string) identity.Identity {
	t.Helper()

	home := filepath.Join(t.TempDir(), "home", name)
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("create home for %s: %v", name, err)
	}
	return identity.Identity{Name: name, UID: os.Getuid(), GID: os.Getgid(), Home: home}
}

// Resolver returns a static resolver for the given identities.
func Resolver(ids ...identity.Identity) identity.Static {
	out := make(identity.Static, len(ids))
	for _, id := range ids {
		out[id.Name] = id
	}
	return out
}
