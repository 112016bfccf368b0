// Package model defines the Shopware Store API data structures shared by
// the gateway, the storefront services and the handlers.
package model

// Cart is the Shopware checkout cart as returned by /checkout/cart.
type Cart struct {
	Token        string               `json:"token"`
	Price        CartPrice            `json:"price"`
	LineItems    []LineItem           `json:"lineItems"`
	Errors       map[string]CartError `json:"errors,omitempty"`
	Deliveries   []Delivery           `json:"deliveries,omitempty"`
	Transactions []Transaction        `json:"transactions,omitempty"`
}

// CartPrice is the aggregated price block of a cart or an order.
type CartPrice struct {
	NetPrice        float64         `json:"netPrice"`
	TotalPrice      float64         `json:"totalPrice"`
	PositionPrice   float64         `json:"positionPrice"`
	TaxStatus       string          `json:"taxStatus,omitempty"`
	CalculatedTaxes []CalculatedTax `json:"calculatedTaxes,omitempty"`
}

// CalculatedTax is a single tax position inside a price block.
type CalculatedTax struct {
	Tax     float64 `json:"tax"`
	TaxRate float64 `json:"taxRate"`
	Price   float64 `json:"price"`
}

// LineItem is a single cart position. Promotions and other non-good
// positions carry Good=false and are excluded from item counts.
type LineItem struct {
	ID           string           `json:"id"`
	ReferencedID string           `json:"referencedId,omitempty"`
	Label        string           `json:"label"`
	Quantity     int              `json:"quantity"`
	Type         string           `json:"type"`
	Good         bool             `json:"good"`
	Description  string           `json:"description,omitempty"`
	Cover        *Media           `json:"cover,omitempty"`
	Price        *CalculatedPrice `json:"price,omitempty"`
}

// CalculatedPrice is the per-position price of a line item.
type CalculatedPrice struct {
	UnitPrice       float64         `json:"unitPrice"`
	TotalPrice      float64         `json:"totalPrice"`
	Quantity        int             `json:"quantity"`
	CalculatedTaxes []CalculatedTax `json:"calculatedTaxes,omitempty"`
}

// CartError is one entry of the cart error map Shopware attaches to
// responses when a position could not be applied as requested.
type CartError struct {
	Message    string `json:"message"`
	MessageKey string `json:"messageKey,omitempty"`
	Level      int    `json:"level,omitempty"`
}

// Delivery groups the shipping information of a cart.
type Delivery struct {
	ShippingCosts  CalculatedPrice `json:"shippingCosts"`
	ShippingMethod *ShippingMethod `json:"shippingMethod,omitempty"`
}

// Transaction is a payment position of a cart or order.
type Transaction struct {
	Amount        *CalculatedPrice  `json:"amount,omitempty"`
	PaymentMethod *PaymentMethod    `json:"paymentMethod,omitempty"`
	StateMachine  *StateMachineWrap `json:"stateMachineState,omitempty"`
}

// StateMachineWrap holds the technical and display name of a state.
type StateMachineWrap struct {
	TechnicalName string `json:"technicalName"`
	Name          string `json:"name"`
}

// Media is an image attached to a product, line item or category.
type Media struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// Normalize replaces nil collections with empty ones so callers can
// range over a cart without nil checks. Shopware omits lineItems
// entirely for fresh sessions.
func (c *Cart) Normalize() {
	if c.LineItems == nil {
		c.LineItems = []LineItem{}
	}
	if c.Deliveries == nil {
		c.Deliveries = []Delivery{}
	}
	if c.Transactions == nil {
		c.Transactions = []Transaction{}
	}
}

// ItemCount returns the summed quantity of all good positions.
func (c *Cart) ItemCount() int {
	n := 0
	for _, li := range c.LineItems {
		if li.Good {
			n += li.Quantity
		}
	}
	return n
}

// IsEmpty reports whether the cart has no positions at all.
func (c *Cart) IsEmpty() bool {
	return len(c.LineItems) == 0
}

// Subtotal returns the position price, i.e. the goods total before
// shipping.
func (c *Cart) Subtotal() float64 {
	return c.Price.PositionPrice
}

// Total returns the grand total including shipping and taxes.
func (c *Cart) Total() float64 {
	return c.Price.TotalPrice
}

// ShippingTotal sums the shipping costs over all deliveries.
func (c *Cart) ShippingTotal() float64 {
	var sum float64
	for _, d := range c.Deliveries {
		sum += d.ShippingCosts.TotalPrice
	}
	return sum
}

// FindLineItem returns the position with the given line item id, or nil.
func (c *Cart) FindLineItem(id string) *LineItem {
	for i := range c.LineItems {
		if c.LineItems[i].ID == id {
			return &c.LineItems[i]
		}
	}
	return nil
}

// ErrorMessages flattens the cart error map into a slice of messages,
// falling back to the message key when no text is present.
func (c *Cart) ErrorMessages() []string {
	if len(c.Errors) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(c.Errors))
	for _, e := range c.Errors {
		switch {
		case e.Message != "":
			msgs = append(msgs, e.Message)
		case e.MessageKey != "":
			msgs = append(msgs, e.MessageKey)
		}
	}
	return msgs
}
