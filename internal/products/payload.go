package products

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// DecodeVariations accepts a JSON array or a JSON string holding one.
func DecodeVariations(raw []byte) ([]models.Variation, error) {
	var out []models.Variation
	if err := decodeList(raw, &out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variations data")
	}
	if len(out) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variations must be a non-empty array")
	}
	return out, nil
}

// DecodeSpecifications accepts a JSON array or a JSON string holding one.
func DecodeSpecifications(raw []byte) ([]models.Specification, error) {
	var out []models.Specification
	if err := decodeList(raw, &out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid specifications data")
	}
	if len(out) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "specifications must be a non-empty array")
	}
	return out, nil
}

// DecodeFilterIDs parses a filter id list. Unlike the other payloads a bad
// list is not fatal; the caller logs the error and stores an empty list.
func DecodeFilterIDs(raw []byte) ([]uuid.UUID, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return []uuid.UUID{}, nil
	}
	var out []uuid.UUID
	if err := decodeList(raw, &out); err != nil {
		return []uuid.UUID{}, err
	}
	if out == nil {
		out = []uuid.UUID{}
	}
	return out, nil
}

func decodeList[T any](raw []byte, out *[]T) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty payload")
	}
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return err
		}
		trimmed = bytes.TrimSpace([]byte(inner))
	}
	return json.Unmarshal(trimmed, out)
}
