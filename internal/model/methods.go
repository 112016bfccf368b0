package model

// ShippingMethod is a Store API shipping method entity.
type ShippingMethod struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Active       bool          `json:"active,omitempty"`
	DeliveryTime *DeliveryTime `json:"deliveryTime,omitempty"`
	Media        *Media        `json:"media,omitempty"`
}

// DeliveryTime describes the promised delivery window of a shipping
// method.
type DeliveryTime struct {
	Name string `json:"name"`
	Min  int    `json:"min,omitempty"`
	Max  int    `json:"max,omitempty"`
	Unit string `json:"unit,omitempty"`
}

// PaymentMethod is a Store API payment method entity.
type PaymentMethod struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	Active            bool   `json:"active,omitempty"`
	AfterOrderEnabled bool   `json:"afterOrderEnabled,omitempty"`
	Media             *Media `json:"media,omitempty"`
}

// MethodList is the envelope Shopware wraps method collections in:
// {"elements": [...], "total": n}.
type MethodList[T any] struct {
	Elements []T `json:"elements"`
	Total    int `json:"total,omitempty"`
}
