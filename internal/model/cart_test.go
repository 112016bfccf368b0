package model

import (
	"encoding/json"
	"testing"
)

func TestCart_Normalize(t *testing.T) {
	// A fresh Shopware session omits lineItems entirely.
	var cart Cart
	if err := json.Unmarshal([]byte(`{"token":"abc","price":{"totalPrice":0,"netPrice":0,"positionPrice":0}}`), &cart); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	cart.Normalize()

	if cart.LineItems == nil {
		t.Error("LineItems should be non-nil after Normalize")
	}
	if !cart.IsEmpty() {
		t.Error("cart should be empty")
	}
	if cart.Deliveries == nil || cart.Transactions == nil {
		t.Error("Deliveries and Transactions should be non-nil after Normalize")
	}
}

func TestCart_Aggregates(t *testing.T) {
	cart := Cart{
		Price: CartPrice{
			NetPrice:      84.02,
			TotalPrice:    104.98,
			PositionPrice: 99.99,
		},
		LineItems: []LineItem{
			{ID: "a", Type: "product", Good: true, Quantity: 2},
			{ID: "b", Type: "product", Good: true, Quantity: 1},
			{ID: "promo", Type: "promotion", Good: false, Quantity: 1},
		},
		Deliveries: []Delivery{
			{ShippingCosts: CalculatedPrice{TotalPrice: 4.99}},
		},
	}

	if got := cart.ItemCount(); got != 3 {
		t.Errorf("ItemCount() = %d, want 3 (promotion excluded)", got)
	}
	if got := cart.Subtotal(); got != 99.99 {
		t.Errorf("Subtotal() = %v, want 99.99", got)
	}
	if got := cart.Total(); got != 104.98 {
		t.Errorf("Total() = %v, want 104.98", got)
	}
	if got := cart.ShippingTotal(); got != 4.99 {
		t.Errorf("ShippingTotal() = %v, want 4.99", got)
	}
	if cart.IsEmpty() {
		t.Error("cart with positions should not be empty")
	}
}

func TestCart_FindLineItem(t *testing.T) {
	cart := Cart{LineItems: []LineItem{{ID: "a", Label: "First"}, {ID: "b", Label: "Second"}}}

	li := cart.FindLineItem("b")
	if li == nil || li.Label != "Second" {
		t.Fatalf("FindLineItem(b) = %+v, want Second", li)
	}
	if cart.FindLineItem("missing") != nil {
		t.Error("FindLineItem should return nil for unknown id")
	}
}

func TestCart_ErrorMessages(t *testing.T) {
	cart := Cart{
		Errors: map[string]CartError{
			"product-stock-reached-x": {Message: "Nur noch 3 verfügbar", MessageKey: "product-stock-reached"},
			"keyed-only":              {MessageKey: "product-out-of-stock"},
		},
	}
	msgs := cart.ErrorMessages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}

	var empty Cart
	if empty.ErrorMessages() != nil {
		t.Error("no errors should yield nil")
	}
}

func TestOrderLineItem_ProductKey(t *testing.T) {
	tests := []struct {
		name string
		li   OrderLineItem
		want string
	}{
		{"referenced id preferred", OrderLineItem{ReferencedID: "ref", ProductID: "prod"}, "ref"},
		{"falls back to product id", OrderLineItem{ProductID: "prod"}, "prod"},
		{"both empty", OrderLineItem{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.li.ProductKey(); got != tt.want {
				t.Errorf("ProductKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCustomer_FullName(t *testing.T) {
	c := &Customer{FirstName: "Erika", LastName: "Mustermann"}
	if got := c.FullName(); got != "Erika Mustermann" {
		t.Errorf("FullName() = %q", got)
	}
	var nilC *Customer
	if nilC.FullName() != "" {
		t.Error("nil customer should format as empty string")
	}
	if (&Customer{LastName: "Mustermann"}).FullName() != "Mustermann" {
		t.Error("missing first name should not add a space")
	}
}
