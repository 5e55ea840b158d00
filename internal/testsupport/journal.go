package testsupport

import (
	"context"
	"testing"

	"cupspdf/internal/config"
	"cupspdf/internal/journal"
)

// MustOpenJournal opens the journal configured in cfg and registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *journal.Store {
	t.Helper()

	store, err := journal.Open(context.Background(), cfg.Journal.Path)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
