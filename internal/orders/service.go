package orders

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// CartReader lists the caller's cart lines.
type CartReader interface {
	ListForUser(ctx context.Context, username string) ([]models.CartItem, error)
}

// AddressFinder loads an address owned by email.
type AddressFinder interface {
	FindAddress(ctx context.Context, email string, id uuid.UUID) (*models.ClientAddress, error)
}

// ShippingQuoter prices a parcel for a destination country.
type ShippingQuoter interface {
	Quote(ctx context.Context, country string, weight decimal.Decimal, delivery enums.DeliveryType) (decimal.Decimal, error)
}

// TaxSource lists the taxes applied to new orders.
type TaxSource interface {
	Active(ctx context.Context) ([]models.Tax, error)
}

type ServiceParams struct {
	Repo      *Repository
	Tx        txRunner
	Outbox    outboxPublisher
	Cart      CartReader
	Addresses AddressFinder
	Shipping  ShippingQuoter
	Taxes     TaxSource
	Logger    *logger.Logger
}

type Service interface {
	Place(ctx context.Context, username string, input PlaceInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, input StatusInput) (*models.Order, error)
	ListForUser(ctx context.Context, username string) ([]models.Order, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error)
	ListAll(ctx context.Context, params pagination.Params) (*OrderPage, error)
}

type service struct {
	repo      *Repository
	tx        txRunner
	outbox    outboxPublisher
	cart      CartReader
	addresses AddressFinder
	shipping  ShippingQuoter
	taxes     TaxSource
	log       *logger.Logger
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orders repository required")
	case params.Tx == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner required")
	case params.Outbox == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox publisher required")
	case params.Cart == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart reader required")
	case params.Addresses == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address finder required")
	case params.Shipping == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping quoter required")
	case params.Taxes == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tax source required")
	}
	log := params.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		outbox:    params.Outbox,
		cart:      params.Cart,
		addresses: params.Addresses,
		shipping:  params.Shipping,
		taxes:     params.Taxes,
		log:       log,
	}, nil
}

// Place turns the caller's cart into an order. Pricing inputs are read
// first; the order insert, purchase counters, cart clearing and the
// order.placed event then commit together.
func (s *service) Place(ctx context.Context, username string, input PlaceInput) (*models.Order, error) {
	if strings.TrimSpace(username) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity")
	}
	if _, err := enums.ParseDeliveryType(string(input.Delivery)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery")
	}
	if input.TotalWeight.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "totalWeight must not be negative")
	}
	ctx = s.log.WithField(ctx, "username", username)

	lines, err := s.cart.ListForUser(ctx, username)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	address, err := s.addresses.FindAddress(ctx, username, input.AddressID)
	if err != nil {
		return nil, err
	}

	items, err := snapshotItems(lines)
	if err != nil {
		return nil, err
	}
	shippingPrice, err := s.shipping.Quote(ctx, address.Country, input.TotalWeight, input.Delivery)
	if err != nil {
		return nil, err
	}
	active, err := s.taxes.Active(ctx)
	if err != nil {
		return nil, err
	}
	totals := computeTotals(items, shippingPrice, active)

	order := &models.Order{
		Username:   username,
		AddressID:  address.ID,
		Delivery:   input.Delivery,
		OrderItems: items,
		RawTotal:   totals.RawTotal,
		Discounts:  totals.Discounts,
		Shipping:   totals.Shipping,
		GrossTax:   totals.GrossTax,
		GrossTotal: totals.GrossTotal,
		Taxes:      totals.Taxes,
		Status:     enums.OrderStatusPending,
	}

	lineIDs := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		lineIDs = append(lineIDs, line.ID)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		for _, item := range items {
			if err := repo.IncrementPurchaseCount(ctx, item.ItemID, item.ItemQuantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment purchase count")
			}
		}
		if err := repo.ConsumeCartLines(ctx, username, lineIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{Username: username},
			Data: payloads.OrderPlacedEvent{
				OrderID:    order.ID,
				Username:   username,
				AddressID:  order.AddressID,
				Delivery:   order.Delivery,
				ItemCount:  len(items),
				GrossTotal: order.GrossTotal,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order placed")
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order")
	}

	s.log.Info(s.log.WithField(ctx, "order_id", order.ID.String()), "order.placed")
	return order, nil
}

// UpdateStatus applies an admin lifecycle change and emits
// order.status_changed when the status moves.
func (s *service) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, input StatusInput) (*models.Order, error) {
	if !actor.IsAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", *input.Status)
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindForUpdate(ctx, id)
		if err != nil {
			return pkgerrors.FromStore(err, "order not found", "load order")
		}

		from := order.Status
		if input.Status != nil {
			if !from.CanTransitionTo(*input.Status) {
				return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move order from %s to %s", from, *input.Status)
			}
			order.Status = *input.Status
		}
		if input.Tracking != nil {
			order.Tracking = input.Tracking
		}
		if input.Remark != nil {
			order.Remark = input.Remark
		}
		if err := repo.UpdateLifecycle(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}

		if order.Status != from {
			event := outbox.DomainEvent{
				EventType:     enums.EventOrderStatusChanged,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         &outbox.ActorRef{Username: actor.Username, Role: "admin"},
				Data: payloads.OrderStatusChangedEvent{
					OrderID:  order.ID,
					Username: order.Username,
					From:     from,
					To:       order.Status,
					Tracking: order.Tracking,
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit status changed")
			}
		}
		updated = order
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	return updated, nil
}

func (s *service) ListForUser(ctx context.Context, username string) ([]models.Order, error) {
	if strings.TrimSpace(username) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity")
	}
	rows, err := s.repo.ListForUser(ctx, username)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, nil
}

// Get returns an order to its owner or to an admin.
func (s *service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "order not found", "load order")
	}
	if !actor.IsAdmin && order.Username != actor.Username {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	return order, nil
}

func (s *service) ListAll(ctx context.Context, params pagination.Params) (*OrderPage, error) {
	page := pagination.New(params)
	rows, total, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return &OrderPage{
		Orders:     rows,
		Page:       page.Number,
		Limit:      page.Size,
		Total:      total,
		TotalPages: page.TotalPages(total),
	}, nil
}
