package clients

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	client := dbtest.Client(t)
	svc, err := NewService(NewRepository(client.DB()), client)
	require.NoError(t, err)
	return svc
}

func strPtr(v string) *string { return &v }

func TestSaveDetailsUpsertsByEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	born := time.Date(1990, 4, 2, 0, 0, 0, 0, time.UTC)
	created, err := svc.SaveDetails(ctx, "ada@example.com", DetailsInput{Name: " Ada ", BirthDate: &born})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", created.Email)
	assert.Equal(t, "Ada", created.Name)

	updated, err := svc.SaveDetails(ctx, "ada@example.com", DetailsInput{Name: "Ada L", Phone: strPtr("555")})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	found, err := svc.FindDetails(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ada L", found.Name)
	require.NotNil(t, found.Phone)
	assert.Equal(t, "555", *found.Phone)
	assert.Nil(t, found.BirthDate)
}

func TestFindDetailsErrors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.FindDetails(ctx, "nobody@example.com")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = svc.FindDetails(ctx, " ")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestSaveAddressKeepsSingleDefault(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	email := "ada@example.com"

	home, err := svc.SaveAddress(ctx, email, AddressInput{Name: "Home", Address: "1 Main", Country: "Spain", IsDefault: true})
	require.NoError(t, err)
	work, err := svc.SaveAddress(ctx, email, AddressInput{Name: "Work", Address: "2 Side", Country: "Spain", IsDefault: true})
	require.NoError(t, err)
	_, err = svc.SaveAddress(ctx, "bob@example.com", AddressInput{Name: "Bob", Address: "3 Bob", Country: "Spain", IsDefault: true})
	require.NoError(t, err)

	rows, err := svc.FindAddresses(ctx, email)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, work.ID, rows[0].ID)
	assert.True(t, rows[0].IsDefault)
	assert.False(t, rows[1].IsDefault)

	homeID := home.ID
	_, err = svc.SaveAddress(ctx, email, AddressInput{ID: &homeID, Name: "Home", Address: "1 Main St", Country: "Spain", IsDefault: true})
	require.NoError(t, err)

	rows, err = svc.FindAddresses(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, home.ID, rows[0].ID)
	assert.Equal(t, "1 Main St", rows[0].Address)
	assert.False(t, rows[1].IsDefault)

	bobRows, err := svc.FindAddresses(ctx, "bob@example.com")
	require.NoError(t, err)
	require.Len(t, bobRows, 1)
	assert.True(t, bobRows[0].IsDefault)
}

func TestSaveAddressRejectsForeignAndInvalid(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	bob, err := svc.SaveAddress(ctx, "bob@example.com", AddressInput{Name: "Bob", Address: "3 Bob", Country: "Spain"})
	require.NoError(t, err)

	bobID := bob.ID
	_, err = svc.SaveAddress(ctx, "ada@example.com", AddressInput{ID: &bobID, Name: "Mine", Address: "x", Country: "Spain"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	missing := uuid.New()
	_, err = svc.SaveAddress(ctx, "ada@example.com", AddressInput{ID: &missing, Name: "Mine", Address: "x", Country: "Spain"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.SaveAddress(ctx, "ada@example.com", AddressInput{Name: "Mine", Address: "x"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestFindAndDeleteAddressScopedToOwner(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	bob, err := svc.SaveAddress(ctx, "bob@example.com", AddressInput{Name: "Bob", Address: "3 Bob", Country: "Spain"})
	require.NoError(t, err)

	_, err = svc.FindAddress(ctx, "ada@example.com", bob.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	found, err := svc.FindAddress(ctx, "bob@example.com", bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bob", found.Name)

	require.True(t, pkgerrors.IsCode(svc.DeleteAddress(ctx, "ada@example.com", bob.ID), pkgerrors.CodeNotFound))
	require.NoError(t, svc.DeleteAddress(ctx, "bob@example.com", bob.ID))
	_, err = svc.FindAddress(ctx, "bob@example.com", bob.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(nil, nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
