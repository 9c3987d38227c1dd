package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/clients"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/shipping"
	"github.com/angelmondragon/storefront-backend/internal/taxes"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

const buyer = "ada@example.com"

type failingEmitter struct{}

func (failingEmitter) Emit(context.Context, *gorm.DB, outbox.DomainEvent) error {
	return errors.New("outbox unavailable")
}

type fixture struct {
	client  *db.Client
	svc     Service
	cart    cart.Service
	clients clients.Service
	lamp    *models.Product
	chair   *models.Product
	address *models.ClientAddress
}

func newFixture(t *testing.T, emitter outboxPublisher) *fixture {
	t.Helper()
	ctx := context.Background()
	client := dbtest.Client(t)
	conn := client.DB()

	productRepo := products.NewRepository(conn)
	lamp := &models.Product{Name: "Lamp", Variations: []models.Variation{
		{ID: "lamp-l", SKU: "L-1", Name: "Large", Price: decPtr("10"), DiscountedPrice: decPtr("8")},
	}}
	chair := &models.Product{Name: "Chair", Variations: []models.Variation{
		{ID: "chair-std", SKU: "C-1", Name: "Standard", Price: decPtr("20")},
	}}
	require.NoError(t, productRepo.Create(ctx, lamp))
	require.NoError(t, productRepo.Create(ctx, chair))

	cartRepo := cart.NewRepository(conn)
	cartSvc, err := cart.NewService(cart.ServiceParams{Repo: cartRepo, Products: productRepo})
	require.NoError(t, err)
	clientSvc, err := clients.NewService(clients.NewRepository(conn), client)
	require.NoError(t, err)
	shippingSvc, err := shipping.NewService(shipping.ServiceParams{Repo: shipping.NewRepository(conn)})
	require.NoError(t, err)
	taxSvc, err := taxes.NewService(taxes.NewRepository(conn))
	require.NoError(t, err)
	_, err = taxSvc.Create(ctx, taxes.TaxInput{TaxName: "VAT", Percentage: dec("10"), IsActive: true})
	require.NoError(t, err)
	_, err = taxSvc.Create(ctx, taxes.TaxInput{TaxName: "Dormant", Percentage: dec("50")})
	require.NoError(t, err)

	address, err := clientSvc.SaveAddress(ctx, buyer, clients.AddressInput{Name: "Home", Address: "1 Main", Country: "Spain", IsDefault: true})
	require.NoError(t, err)

	if emitter == nil {
		emitter = outbox.NewService(outbox.NewRepository(conn), logger.Nop())
	}
	svc, err := NewService(ServiceParams{
		Repo:      NewRepository(conn),
		Tx:        client,
		Outbox:    emitter,
		Cart:      cartRepo,
		Addresses: clientSvc,
		Shipping:  shippingSvc,
		Taxes:     taxSvc,
	})
	require.NoError(t, err)

	return &fixture{client: client, svc: svc, cart: cartSvc, clients: clientSvc, lamp: lamp, chair: chair, address: address}
}

func (f *fixture) fillCart(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.cart.Add(ctx, buyer, cart.AddInput{ProductID: f.lamp.ID, VariationID: "lamp-l", Quantity: 2})
	require.NoError(t, err)
	_, err = f.cart.Add(ctx, buyer, cart.AddInput{ProductID: f.chair.ID, VariationID: "chair-std", Quantity: 1})
	require.NoError(t, err)
}

func (f *fixture) outboxRows(t *testing.T) []models.OutboxEvent {
	t.Helper()
	var rows []models.OutboxEvent
	require.NoError(t, f.client.DB().Order("id ASC").Find(&rows).Error)
	return rows
}

func placeInput(addressID uuid.UUID) PlaceInput {
	return PlaceInput{AddressID: addressID, Delivery: enums.DeliveryRegular, TotalWeight: dec("1")}
}

func TestPlaceBuildsOrderAndClearsCart(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.fillCart(t)

	order, err := f.svc.Place(ctx, buyer, placeInput(f.address.ID))
	require.NoError(t, err)

	assert.Equal(t, buyer, order.Username)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	require.Len(t, order.OrderItems, 2)
	assert.Equal(t, "40", order.RawTotal.String())
	assert.Equal(t, "4", order.Discounts.String())
	assert.Equal(t, "113.99", order.Shipping.String())
	require.Len(t, order.Taxes, 1)
	assert.Equal(t, "VAT", order.Taxes[0].TaxName)
	assert.Equal(t, "3.6", order.GrossTax.String())
	assert.Equal(t, "153.59", order.GrossTotal.String())

	lines, err := f.cart.ListForUser(ctx, buyer)
	require.NoError(t, err)
	assert.Empty(t, lines)

	var lamp models.Product
	require.NoError(t, f.client.DB().First(&lamp, "id = ?", f.lamp.ID).Error)
	assert.Equal(t, 2, lamp.PurchaseCount)

	events := f.outboxRows(t)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventOrderPlaced, events[0].EventType)
	assert.Equal(t, order.ID, events[0].AggregateID)

	mine, err := f.svc.ListForUser(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, order.ID, mine[0].ID)
}

func TestPlacePremiumDelivery(t *testing.T) {
	f := newFixture(t, nil)
	f.fillCart(t)

	order, err := f.svc.Place(context.Background(), buyer, PlaceInput{AddressID: f.address.ID, Delivery: enums.DeliveryPremium, TotalWeight: dec("0.2")})
	require.NoError(t, err)
	assert.Equal(t, "42.99", order.Shipping.String())
}

func TestPlaceRejections(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Place(ctx, buyer, placeInput(f.address.ID))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "empty cart: %v", err)

	f.fillCart(t)

	_, err = f.svc.Place(ctx, buyer, placeInput(uuid.New()))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "missing address: %v", err)

	foreign, err := f.clients.SaveAddress(ctx, "bob@example.com", clients.AddressInput{Name: "Bob", Address: "2 Side", Country: "Spain"})
	require.NoError(t, err)
	_, err = f.svc.Place(ctx, buyer, placeInput(foreign.ID))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "foreign address: %v", err)

	_, err = f.svc.Place(ctx, buyer, PlaceInput{AddressID: f.address.ID, Delivery: "drone"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Place(ctx, "", placeInput(f.address.ID))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	lines, err := f.cart.ListForUser(ctx, buyer)
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestPlaceRollsBackWhenEventFails(t *testing.T) {
	f := newFixture(t, failingEmitter{})
	ctx := context.Background()
	f.fillCart(t)

	_, err := f.svc.Place(ctx, buyer, placeInput(f.address.ID))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	var count int64
	require.NoError(t, f.client.DB().Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)

	lines, err := f.cart.ListForUser(ctx, buyer)
	require.NoError(t, err)
	assert.Len(t, lines, 2)

	var lamp models.Product
	require.NoError(t, f.client.DB().First(&lamp, "id = ?", f.lamp.ID).Error)
	assert.Zero(t, lamp.PurchaseCount)
}

func TestUpdateStatusLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.fillCart(t)
	order, err := f.svc.Place(ctx, buyer, placeInput(f.address.ID))
	require.NoError(t, err)

	admin := Actor{Username: "root@example.com", IsAdmin: true}
	shipped := enums.OrderStatusShipped
	accepted := enums.OrderStatusAccepted

	_, err = f.svc.UpdateStatus(ctx, Actor{Username: buyer}, order.ID, StatusInput{Status: &accepted})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.UpdateStatus(ctx, admin, order.ID, StatusInput{Status: &shipped})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	updated, err := f.svc.UpdateStatus(ctx, admin, order.ID, StatusInput{Status: &accepted})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusAccepted, updated.Status)

	tracking := "TRK-1"
	updated, err = f.svc.UpdateStatus(ctx, admin, order.ID, StatusInput{Tracking: &tracking})
	require.NoError(t, err)
	require.NotNil(t, updated.Tracking)
	assert.Equal(t, enums.OrderStatusAccepted, updated.Status)

	updated, err = f.svc.UpdateStatus(ctx, admin, order.ID, StatusInput{Status: &shipped})
	require.NoError(t, err)
	assert.Equal(t, "TRK-1", *updated.Tracking)

	events := f.outboxRows(t)
	require.Len(t, events, 3)
	assert.Equal(t, enums.EventOrderStatusChanged, events[1].EventType)
	assert.Equal(t, enums.EventOrderStatusChanged, events[2].EventType)

	bogus := enums.OrderStatus("Z")
	_, err = f.svc.UpdateStatus(ctx, admin, order.ID, StatusInput{Status: &bogus})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.UpdateStatus(ctx, admin, uuid.New(), StatusInput{Status: &accepted})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestGetEnforcesOwnership(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.fillCart(t)
	order, err := f.svc.Place(ctx, buyer, placeInput(f.address.ID))
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, Actor{Username: buyer}, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = f.svc.Get(ctx, Actor{Username: "bob@example.com"}, order.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.Get(ctx, Actor{Username: "root@example.com", IsAdmin: true}, order.ID)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, Actor{Username: buyer}, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestPlaceKeepsSubjectIdentityCase(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	const subject = "auth0|AbC123"

	_, err := f.cart.Add(ctx, subject, cart.AddInput{ProductID: f.lamp.ID, VariationID: "lamp-l", Quantity: 1})
	require.NoError(t, err)
	address, err := f.clients.SaveAddress(ctx, subject, clients.AddressInput{Name: "Desk", Address: "9 Loft", Country: "Spain"})
	require.NoError(t, err)

	order, err := f.svc.Place(ctx, subject, placeInput(address.ID))
	require.NoError(t, err)
	assert.Equal(t, subject, order.Username)

	mine, err := f.svc.ListForUser(ctx, subject)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	_, err = f.svc.Get(ctx, Actor{Username: subject}, order.ID)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, Actor{Username: "auth0|abc123"}, order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestListAllPaginates(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var placed []uuid.UUID
	for i := 0; i < 3; i++ {
		f.fillCart(t)
		order, err := f.svc.Place(ctx, buyer, placeInput(f.address.ID))
		require.NoError(t, err)
		placed = append(placed, order.ID)
	}

	page, err := f.svc.ListAll(ctx, pagination.Params{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Orders, 2)
	assert.Equal(t, placed[2], page.Orders[0].ID)

	last, err := f.svc.ListAll(ctx, pagination.Params{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, last.Orders, 1)
	assert.Equal(t, placed[0], last.Orders[0].ID)
}

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
