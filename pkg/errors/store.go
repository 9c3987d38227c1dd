package errors

import (
	stdErrors "errors"

	"gorm.io/gorm"
)

// FromStore maps a repository or blob-store failure onto a typed error.
// Typed errors pass through, gorm.ErrRecordNotFound becomes CodeNotFound with
// notFound as message, and anything else becomes CodeDependency.
func FromStore(err error, notFound, failure string) error {
	if err == nil {
		return nil
	}
	if typed := As(err); typed != nil {
		return typed
	}
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return Wrap(CodeNotFound, err, notFound)
	}
	return Wrap(CodeDependency, err, failure)
}
