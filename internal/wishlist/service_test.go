package wishlist

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func setup(t *testing.T) (Service, *products.Repository, *models.Product) {
	t.Helper()
	conn := dbtest.Open(t)
	productRepo := products.NewRepository(conn)
	price := decimal.NewFromInt(15)
	qty := 2
	product := &models.Product{Name: "Lamp", Variations: []models.Variation{{ID: "v1", Price: &price, Quantity: &qty}}}
	require.NoError(t, productRepo.Create(context.Background(), product))

	svc, err := NewService(ServiceParams{WishlistRepo: NewRepository(conn), ProductRepo: productRepo})
	require.NoError(t, err)
	return svc, productRepo, product
}

func TestAddAndDuplicate(t *testing.T) {
	svc, _, product := setup(t)
	ctx := context.Background()

	item, err := svc.Add(ctx, "ana@example.com", product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, item.ProductID)

	_, err = svc.Add(ctx, "ana@example.com", product.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.Add(ctx, "ana@example.com", uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListReadsFirstVariationLive(t *testing.T) {
	svc, productRepo, product := setup(t)
	ctx := context.Background()
	_, err := svc.Add(ctx, "ana@example.com", product.ID)
	require.NoError(t, err)

	repriced := decimal.NewFromInt(11)
	product.Variations[0].Price = &repriced
	require.NoError(t, productRepo.Save(ctx, product))

	views, err := svc.ListForUser(ctx, "ana@example.com")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "11", views[0].Price.String())
	assert.Equal(t, 2, *views[0].StockSize)
	assert.Equal(t, "Lamp", views[0].Product.Name)
}

func TestRemoveIsScopedToOwner(t *testing.T) {
	svc, _, product := setup(t)
	ctx := context.Background()
	item, err := svc.Add(ctx, "ana@example.com", product.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, "bob@example.com", item.ID))
	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, svc.Clear(ctx, "ana@example.com"))
	all, err = svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
