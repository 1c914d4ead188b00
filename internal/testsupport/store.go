package testsupport

import (
	"testing"

	"github.com/beano38/retro-manager/internal/config"
	"github.com/beano38/retro-manager/internal/history"
)

// MustOpenHistory opens the history database described by cfg and registers
// cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
