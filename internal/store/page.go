package store

// Page describes offset-based pagination for list operations: skip
// Number*Size rows, return at most Size rows. Listing is not
// snapshot-isolated; concurrent inserts and deletes may cause rows to be
// skipped or duplicated across pages.
//
// Size is caller-supplied and not capped by the stores. A very large size is
// a resource-exhaustion risk accepted at this layer.
type Page struct {
	Number int
	Size   int
}

// DefaultPage returns the first page with the default size.
func DefaultPage() Page {
	return Page{Number: 0, Size: 50}
}

// Limit returns the row limit for the page, applying the default size.
func (p Page) Limit() int {
	if p.Size <= 0 {
		return 50
	}
	return p.Size
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	if p.Number <= 0 {
		return 0
	}
	return p.Number * p.Limit()
}
