package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// IDList is an ordered list of ids persisted as a JSON array. It backs the
// parent-owned reference lists (category subcategories, group filters,
// product filters).
type IDList []uuid.UUID

func (l *IDList) Scan(src any) error {
	if src == nil {
		*l = IDList{}
		return nil
	}

	var raw []byte
	switch v := src.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("IDList: unsupported Scan type %T", src)
	}
	if len(raw) == 0 || string(raw) == "null" {
		*l = IDList{}
		return nil
	}

	var out []uuid.UUID
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("IDList: decode: %w", err)
	}
	*l = IDList(out)
	return nil
}

func (l IDList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]uuid.UUID(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Contains reports whether id is present.
func (l IDList) Contains(id uuid.UUID) bool {
	for _, candidate := range l {
		if candidate == id {
			return true
		}
	}
	return false
}

// With returns the list with id appended when absent.
func (l IDList) With(id uuid.UUID) IDList {
	if l.Contains(id) {
		return l
	}
	out := make(IDList, 0, len(l)+1)
	out = append(out, l...)
	return append(out, id)
}

// Without returns the list with every occurrence of id removed.
func (l IDList) Without(id uuid.UUID) IDList {
	out := make(IDList, 0, len(l))
	for _, candidate := range l {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}

// Dedupe drops repeated ids while keeping first-seen order.
func (l IDList) Dedupe() IDList {
	seen := make(map[uuid.UUID]struct{}, len(l))
	out := make(IDList, 0, len(l))
	for _, id := range l {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Diff returns the ids of next missing from l (toAdd) and the ids of l missing
// from next (toRemove).
func (l IDList) Diff(next IDList) (toAdd, toRemove IDList) {
	toAdd, toRemove = IDList{}, IDList{}
	for _, id := range next {
		if !l.Contains(id) {
			toAdd = append(toAdd, id)
		}
	}
	for _, id := range l {
		if !next.Contains(id) {
			toRemove = append(toRemove, id)
		}
	}
	return toAdd, toRemove
}
