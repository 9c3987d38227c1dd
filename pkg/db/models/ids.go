package models

import "github.com/google/uuid"

// ensureID assigns a time-ordered id when the caller did not set one, so
// "newest first" can sort on the primary key.
func ensureID(id *uuid.UUID) error {
	if *id != uuid.Nil {
		return nil
	}
	next, err := uuid.NewV7()
	if err != nil {
		return err
	}
	*id = next
	return nil
}
