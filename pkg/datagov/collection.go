package datagov

import (
	"encoding/json"
	"iter"
)

// Result is the untyped view of a fetched collection, as returned by
// Gateway.Fetch. Use As to recover the typed collection.
type Result interface {
	// Resource is the id of the resource the records came from
	Resource() string
	// Count is the number of records
	Count() int

	json.Marshaler
}

// Collection is an ordered, read-only set of records of one resource.
//
// Records keep the order of the API response. The cursor methods (Current,
// Key, Next, Valid, Rewind) share state on the collection, so a collection
// should be traversed by one goroutine at a time; All and At do not touch
// the cursor.
type Collection[T any] struct {
	resource string
	items    []T
	pos      int
}

// CollectionFactory builds the collection returned for a resource
type CollectionFactory[T any] func(resource string, items []T) *Collection[T]

// NewCollection creates a collection holding a copy of items
func NewCollection[T any](resource string, items []T) *Collection[T] {
	owned := make([]T, len(items))
	copy(owned, items)
	return &Collection[T]{resource: resource, items: owned}
}

// Resource returns the resource id the records belong to
func (c *Collection[T]) Resource() string {
	return c.resource
}

// Count returns the number of records
func (c *Collection[T]) Count() int {
	return len(c.items)
}

// Current returns the record under the cursor. ok is false once the
// cursor has moved past the last record.
func (c *Collection[T]) Current() (rec T, ok bool) {
	return c.At(c.pos)
}

// Key returns the cursor position
func (c *Collection[T]) Key() int {
	return c.pos
}

// Next advances the cursor; it stops one past the last record
func (c *Collection[T]) Next() {
	if c.pos < len(c.items) {
		c.pos++
	}
}

// Valid reports whether the cursor points at a record
func (c *Collection[T]) Valid() bool {
	return c.pos < len(c.items)
}

// Rewind moves the cursor back to the first record
func (c *Collection[T]) Rewind() {
	c.pos = 0
}

// At returns the record at position i
func (c *Collection[T]) At(i int) (rec T, ok bool) {
	if i < 0 || i >= len(c.items) {
		return rec, false
	}
	return c.items[i], true
}

// All iterates over the records in order without moving the cursor
func (c *Collection[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, rec := range c.items {
			if !yield(i, rec) {
				return
			}
		}
	}
}

// Items returns a copy of the records
func (c *Collection[T]) Items() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// MarshalJSON encodes the records as a JSON array
func (c *Collection[T]) MarshalJSON() ([]byte, error) {
	if c.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.items)
}

// As returns r as a typed collection when its records are of type T
func As[T any](r Result) (*Collection[T], bool) {
	c, ok := r.(*Collection[T])
	return c, ok
}
