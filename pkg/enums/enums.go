package enums

import (
	"fmt"
	"slices"
)

// parse returns the member of known equal to raw.
func parse[T ~string](kind, raw string, known []T) (T, error) {
	if v := T(raw); slices.Contains(known, v) {
		return v, nil
	}
	return "", fmt.Errorf("invalid %s %q", kind, raw)
}
