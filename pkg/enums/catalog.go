package enums

import (
	"fmt"
	"slices"
)

// ProductSort selects the ordering of a catalog search.
type ProductSort string

const (
	ProductSortLatest    ProductSort = "latest"
	ProductSortFeatured  ProductSort = "featured"
	ProductSortBest      ProductSort = "best"
	ProductSortPriceHigh ProductSort = "priceHigh"
	ProductSortPriceLow  ProductSort = "priceLow"
	ProductSortAtoZ      ProductSort = "AtoZ"
	ProductSortZtoA      ProductSort = "ZtoA"
)

var validProductSorts = []ProductSort{
	ProductSortLatest,
	ProductSortFeatured,
	ProductSortBest,
	ProductSortPriceHigh,
	ProductSortPriceLow,
	ProductSortAtoZ,
	ProductSortZtoA,
}

// IsValid reports whether the value is a known ProductSort.
func (s ProductSort) IsValid() bool {
	return slices.Contains(validProductSorts, s)
}

// Normalize returns s when known and ProductSortLatest otherwise.
func (s ProductSort) Normalize() ProductSort {
	if s.IsValid() {
		return s
	}
	return ProductSortLatest
}

// CatalogScope identifies which taxonomy level a search or crumb is anchored to.
type CatalogScope string

const (
	CatalogScopeNone          CatalogScope = ""
	CatalogScopeCategory      CatalogScope = "C"
	CatalogScopeSubCategory   CatalogScope = "S"
	CatalogScopeInnerCategory CatalogScope = "I"
)

// ParseCatalogScope maps the catType query value. A blank value with an id means category.
func ParseCatalogScope(value string) (CatalogScope, error) {
	switch value {
	case "", "C":
		return CatalogScopeCategory, nil
	case "S":
		return CatalogScopeSubCategory, nil
	case "I":
		return CatalogScopeInnerCategory, nil
	}
	return "", fmt.Errorf("invalid catType %q", value)
}

// DeliveryType selects the shipping price column.
type DeliveryType string

const (
	DeliveryRegular DeliveryType = "regular"
	DeliveryPremium DeliveryType = "premium"
)

// IsPremium reports whether the premium price applies.
func (d DeliveryType) IsPremium() bool {
	return d == DeliveryPremium
}

// ParseDeliveryType converts raw input into a DeliveryType.
func ParseDeliveryType(value string) (DeliveryType, error) {
	return parse("delivery", value, []DeliveryType{DeliveryRegular, DeliveryPremium})
}
