// Package draft edits the admin's working copy of the site content. Every
// operation returns a new snapshot and leaves its input untouched.
package draft

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/debemdeboas/yasny-slukh/internal/model"
)

var (
	ErrUnknownKind    = errors.New("unknown collection")
	ErrRecordNotFound = errors.New("record not found")
	ErrReadOnlyKind   = errors.New("collection is read-only")

	// ErrUnknownField is model.ErrUnknownField, re-exported for callers that
	// only deal with the editor.
	ErrUnknownField = model.ErrUnknownField
)

const positionalPrefix = "@"

// Key addresses a record by its id, or by position when it has none yet.
func Key[T model.Record[T]](item T, index int) string {
	if id := item.GetID(); id != "" {
		return id
	}
	return positionalPrefix + strconv.Itoa(index)
}

// IsPositional reports whether key addresses a record by position.
func IsPositional(key string) bool {
	return strings.HasPrefix(key, positionalPrefix)
}

// Collection edits one list of records. The zero value is usable.
type Collection[T model.Record[T]] struct {
	// New builds the record appended by Add.
	New func() T
	// KeyOf overrides Key.
	KeyOf func(item T, index int) string
}

func (c Collection[T]) key(item T, index int) string {
	if c.KeyOf != nil {
		return c.KeyOf(item, index)
	}
	return Key(item, index)
}

// Index returns the position of the record addressed by key, or -1.
func (c Collection[T]) Index(items []T, key string) int {
	for i, it := range items {
		if c.key(it, i) == key {
			return i
		}
	}
	return -1
}

// Add appends a new record carrying id (which may be empty) and returns the
// new list and the key of the added record.
func (c Collection[T]) Add(items []T, id string) ([]T, string) {
	var rec T
	if c.New != nil {
		rec = c.New()
	}
	rec = rec.WithID(id)

	out := make([]T, len(items), len(items)+1)
	copy(out, items)
	out = append(out, rec)
	return out, c.key(rec, len(out)-1)
}

// Update replaces one field of the record addressed by key.
func (c Collection[T]) Update(items []T, key, field, value string) ([]T, error) {
	i := c.Index(items, key)
	if i < 0 {
		return items, fmt.Errorf("%w: %s", ErrRecordNotFound, key)
	}
	rec, err := items[i].With(field, value)
	if err != nil {
		return items, err
	}
	out := slices.Clone(items)
	out[i] = rec
	return out, nil
}

// Delete removes the record addressed by key.
func (c Collection[T]) Delete(items []T, key string) ([]T, error) {
	i := c.Index(items, key)
	if i < 0 {
		return items, fmt.Errorf("%w: %s", ErrRecordNotFound, key)
	}
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...), nil
}

// Keys returns the key of every record in display order.
func (c Collection[T]) Keys(items []T) []string {
	keys := make([]string, len(items))
	for i, it := range items {
		keys[i] = c.key(it, i)
	}
	return keys
}
