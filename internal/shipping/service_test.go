package shipping

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: NewRepository(dbtest.Open(t))})
	require.NoError(t, err)
	return svc
}

func TestListSeedsDefaultTierOnce(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rows, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Rest of the World", rows[0].Name)
	assert.Equal(t, []string{"*"}, rows[0].Countries)
	require.Len(t, rows[0].PriceVariations, 2)
	assert.True(t, dec("113.99").Equal(rows[0].PriceVariations[1].RegularPrice))

	again, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, rows[0].ID, again[0].ID)
}

func TestSaveUpsertsByID(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tier, err := svc.Save(ctx, TierInput{
		Name:            "Nordics",
		Countries:       []string{"Sweden", " Norway ", ""},
		PriceVariations: []models.PriceVariation{{Weight: dec("1"), RegularPrice: dec("9"), PremiumPrice: dec("12")}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sweden", "Norway"}, tier.Countries)

	id := tier.ID
	updated, err := svc.Save(ctx, TierInput{
		ID:              &id,
		Name:            "Nordics",
		Countries:       []string{"Sweden", "Norway", "Finland"},
		PriceVariations: tier.PriceVariations,
	})
	require.NoError(t, err)
	assert.Equal(t, id, updated.ID)

	rows, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0].Countries, 3)

	missing := uuid.New()
	_, err = svc.Save(ctx, TierInput{ID: &missing, Name: "x", Countries: []string{"x"}, PriceVariations: tier.PriceVariations})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestSaveValidates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	brackets := []models.PriceVariation{{Weight: dec("1"), RegularPrice: dec("1"), PremiumPrice: dec("2")}}

	cases := []TierInput{
		{Name: " ", Countries: []string{"x"}, PriceVariations: brackets},
		{Name: "a", PriceVariations: brackets},
		{Name: "a", Countries: []string{"x"}},
		{Name: "a", Countries: []string{"x"}, PriceVariations: []models.PriceVariation{{Weight: dec("-1")}}},
	}
	for i, input := range cases {
		_, err := svc.Save(ctx, input)
		if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rows, err := svc.List(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, rows[0].ID))
	require.True(t, pkgerrors.IsCode(svc.Delete(ctx, rows[0].ID), pkgerrors.CodeNotFound))
}

func TestQuote(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, TierInput{
		Name:      "Spain",
		Countries: []string{"Spain"},
		PriceVariations: []models.PriceVariation{
			{Weight: dec("5"), RegularPrice: dec("8"), PremiumPrice: dec("11")},
			{Weight: dec("1"), RegularPrice: dec("4"), PremiumPrice: dec("6")},
		},
	})
	require.NoError(t, err)
	_, err = svc.Save(ctx, TierInput{
		Name:            "World",
		Countries:       []string{"*"},
		PriceVariations: models.DefaultShippingPrice().PriceVariations,
	})
	require.NoError(t, err)

	cases := []struct {
		name     string
		country  string
		weight   string
		delivery enums.DeliveryType
		want     string
	}{
		{"lightest bracket", "spain", "0.3", enums.DeliveryRegular, "4"},
		{"exact weight", "Spain", "5", enums.DeliveryPremium, "11"},
		{"over heaviest", "Spain", "50", enums.DeliveryRegular, "8"},
		{"wildcard", "Chile", "2", enums.DeliveryRegular, "113.99"},
		{"wildcard premium", "Chile", "0.5", enums.DeliveryPremium, "42.99"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.Quote(ctx, tc.country, dec(tc.weight), tc.delivery)
			require.NoError(t, err)
			assert.True(t, dec(tc.want).Equal(got), "got %s", got)
		})
	}
}

func TestQuoteWithoutWildcard(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, TierInput{
		Name:            "Spain",
		Countries:       []string{"Spain"},
		PriceVariations: []models.PriceVariation{{Weight: dec("1"), RegularPrice: dec("4"), PremiumPrice: dec("6")}},
	})
	require.NoError(t, err)

	_, err = svc.Quote(ctx, "Chile", dec("1"), enums.DeliveryRegular)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
