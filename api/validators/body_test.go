package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type lineInput struct {
	Quantity int `json:"quantity" validate:"gte=1"`
}

type subscribeInput struct {
	Email string      `json:"email" validate:"required,email"`
	Mode  string      `json:"mode" validate:"omitempty,oneof=regular express"`
	Lines []lineInput `json:"lines" validate:"dive"`
}

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func details(t *testing.T, err error) map[string]string {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	out, ok := typed.Details().(map[string]string)
	require.True(t, ok, "details: %#v", typed.Details())
	return out
}

func TestDecodeJSONBodyAcceptsValidInput(t *testing.T) {
	var in subscribeInput
	err := DecodeJSONBody(post(`{"email":"reader@example.com","username":"ignored","lines":[{"quantity":2}]}`), &in)
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", in.Email)
	assert.Equal(t, 2, in.Lines[0].Quantity)
}

func TestDecodeJSONBodyReportsFieldsByWireName(t *testing.T) {
	var in subscribeInput
	err := DecodeJSONBody(post(`{"email":"nope","mode":"teleport","lines":[{"quantity":0}]}`), &in)

	got := details(t, err)
	assert.Equal(t, "must be a valid email", got["email"])
	assert.Equal(t, "must be one of [regular express]", got["mode"])
	assert.Equal(t, "must be greater than or equal to 1", got["lines[0].quantity"])
}

func TestDecodeJSONBodyRejectsMalformedJSON(t *testing.T) {
	var in subscribeInput
	err := DecodeJSONBody(post(`{"email":`), &in)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyRejectsOversizedBody(t *testing.T) {
	var in subscribeInput
	huge := `{"email":"` + strings.Repeat("a", maxJSONBody) + `@example.com"}`
	err := DecodeJSONBody(post(huge), &in)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, "request body too large", typed.Message())
}

func TestValidateSlices(t *testing.T) {
	err := Validate([]lineInput{{Quantity: 1}, {Quantity: 0}})
	got := details(t, err)
	assert.Len(t, got, 1)

	assert.NoError(t, Validate([]lineInput{{Quantity: 3}}))
	assert.NoError(t, Validate("not a struct"))
}
