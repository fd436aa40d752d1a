package memory

import (
	"github.com/qkhacks/controller/internal/store"
)

// paginate applies offset pagination to a slice of entities and clones each
// returned entity to avoid external modifications.
func paginate[T any](items []*T, page store.Page) []*T {
	offset := page.Offset()
	if offset >= len(items) {
		return nil
	}

	end := offset + page.Limit()
	if end > len(items) {
		end = len(items)
	}

	result := make([]*T, 0, end-offset)
	for _, item := range items[offset:end] {
		clone := *item
		result = append(result, &clone)
	}

	return result
}
