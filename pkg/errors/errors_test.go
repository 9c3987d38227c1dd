package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		expose    bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", expose: true, detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required", expose: true},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied", expose: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found", expose: true},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected", expose: true},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", expose: true, detailsOK: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded", expose: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error"},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.ExposeMessage != tt.expose {
			t.Fatalf("code %s expected expose %v got %v", tt.code, tt.expose, meta.ExposeMessage)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestIsCodeFollowsWrappedChain(t *testing.T) {
	inner := New(CodeNotFound, "subcategory not found")
	outer := fmt.Errorf("attach: %w", inner)
	if !IsCode(outer, CodeNotFound) {
		t.Fatalf("expected NOT_FOUND through wrapped chain")
	}
	if IsCode(outer, CodeConflict) {
		t.Fatalf("did not expect CONFLICT")
	}
	if IsCode(stdErrors.New("plain"), CodeInternal) {
		t.Fatalf("plain errors carry no code")
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("load: %w", Wrap(CodeNotFound, stdErrors.New("record not found"), "product not found"))
	if !stdErrors.Is(err, New(CodeNotFound, "")) {
		t.Fatalf("expected code match through chain")
	}
	if stdErrors.Is(err, New(CodeConflict, "")) {
		t.Fatalf("different code must not match")
	}
	if got := err.Error(); got != "load: NOT_FOUND: product not found: record not found" {
		t.Fatalf("unexpected error string %q", got)
	}
}

func TestNewfFormatsMessage(t *testing.T) {
	err := Newf(CodeValidation, "invalid %s", "category")
	if err.Message() != "invalid category" {
		t.Fatalf("unexpected message %q", err.Message())
	}
}

func TestFromStore(t *testing.T) {
	if FromStore(nil, "x", "y") != nil {
		t.Fatalf("nil error should stay nil")
	}
	if !IsCode(FromStore(fmt.Errorf("find: %w", gorm.ErrRecordNotFound), "product not found", "load product"), CodeNotFound) {
		t.Fatalf("record not found should map to not found")
	}
	if !IsCode(FromStore(stdErrors.New("conn reset"), "product not found", "load product"), CodeDependency) {
		t.Fatalf("other failures should map to dependency")
	}
	typed := New(CodeConflict, "dup")
	if FromStore(typed, "a", "b") != error(typed) {
		t.Fatalf("typed errors should pass through")
	}
}

func TestDiagnoseCollectsPostgresDetail(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_newsletters_email", TableName: "newsletters"}
	err := Wrap(CodeConflict, fmt.Errorf("insert: %w", pgErr), "email already subscribed")

	d := Diagnose(err)
	if d.Code != CodeConflict {
		t.Fatalf("expected conflict code got %s", d.Code)
	}
	if d.PGCode != "23505" || d.Constraint != "ux_newsletters_email" || d.Table != "newsletters" {
		t.Fatalf("unexpected pg detail %+v", d)
	}
	fields := d.Fields()
	if fields["pg_constraint"] != "ux_newsletters_email" {
		t.Fatalf("expected constraint field, got %v", fields)
	}
	if _, ok := fields["pg_detail"]; ok {
		t.Fatalf("empty values should be skipped")
	}
	if len(d.Chain) != 3 {
		t.Fatalf("expected three links in chain, got %d", len(d.Chain))
	}
}

func TestDiagnoseNil(t *testing.T) {
	if fields := Diagnose(nil).Fields(); len(fields) != 0 {
		t.Fatalf("nil error should produce no fields, got %v", fields)
	}
}
