package models

// All lists every persisted model. Tests and sqlite dev runs AutoMigrate it;
// postgres schema is owned by the goose migrations.
func All() []any {
	return []any{
		&Category{},
		&SubCategory{},
		&Filter{},
		&FilterGroup{},
		&Product{},
		&ProductFilter{},
		&CartItem{},
		&WishlistItem{},
		&Order{},
		&Client{},
		&ClientAddress{},
		&Tax{},
		&ShippingPrice{},
		&Newsletter{},
		&OutboxEvent{},
	}
}
