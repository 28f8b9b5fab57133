package testsupport

import (
	"fmt"
	"testing"

	"triage/internal/config"
	"triage/internal/feedback"
	"triage/internal/store"
)

// MustOpenStore opens a store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

// ReviewItems builds n valid review items with sequential IDs.
func ReviewItems(n int) []feedback.Item {
	items := make([]feedback.Item, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, feedback.Item{
			ID:     fmt.Sprintf("item-%03d", i),
			Source: feedback.SourceReview,
			Text:   fmt.Sprintf("feedback number %d, works great", i),
		})
	}
	return items
}
