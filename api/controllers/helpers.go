package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/validators"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const defaultTopLimit = 10

// callerUsername returns the authenticated username or an Unauthorized error.
func callerUsername(ctx context.Context) (string, error) {
	username := middleware.UsernameFromContext(ctx)
	if username == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return username, nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	return validators.ParseUUID(chi.URLParam(r, name), name)
}

// limitParam reads a positive path limit, falling back to fallback for
// missing or non-numeric values.
func limitParam(r *http.Request, name string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, name)))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func deleted(id uuid.UUID) map[string]any {
	return map[string]any{"id": id, "deleted": true}
}
