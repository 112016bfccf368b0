package model

// Order is the Store API order entity as returned by /order and
// /checkout/order.
type Order struct {
	ID             string            `json:"id"`
	OrderNumber    string            `json:"orderNumber"`
	OrderDateTime  string            `json:"orderDateTime"`
	AmountTotal    float64           `json:"amountTotal"`
	AmountNet      float64           `json:"amountNet,omitempty"`
	Price          *CartPrice        `json:"price,omitempty"`
	StateMachine   *StateMachineWrap `json:"stateMachineState,omitempty"`
	LineItems      []OrderLineItem   `json:"lineItems,omitempty"`
	Deliveries     []Delivery        `json:"deliveries,omitempty"`
	Transactions   []Transaction     `json:"transactions,omitempty"`
	BillingAddress *Address          `json:"billingAddress,omitempty"`
	Currency       *Currency         `json:"currency,omitempty"`
	OrderCustomer  *OrderCustomer    `json:"orderCustomer,omitempty"`
}

// OrderLineItem is a single position of a placed order. ReferencedID
// links product positions back to the catalog product.
type OrderLineItem struct {
	ID           string           `json:"id"`
	ReferencedID string           `json:"referencedId,omitempty"`
	ProductID    string           `json:"productId,omitempty"`
	Label        string           `json:"label"`
	Quantity     int              `json:"quantity"`
	Type         string           `json:"type"`
	Good         bool             `json:"good,omitempty"`
	UnitPrice    float64          `json:"unitPrice,omitempty"`
	TotalPrice   float64          `json:"totalPrice,omitempty"`
	Price        *CalculatedPrice `json:"price,omitempty"`
	Cover        *Media           `json:"cover,omitempty"`
}

// ProductKey returns the catalog identifier of a product position,
// preferring referencedId over productId as the two are not always
// both set.
func (li *OrderLineItem) ProductKey() string {
	if li.ReferencedID != "" {
		return li.ReferencedID
	}
	return li.ProductID
}

// OrderCustomer is the customer snapshot embedded in an order.
type OrderCustomer struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Currency is the Store API currency entity.
type Currency struct {
	ISOCode string `json:"isoCode"`
	Symbol  string `json:"symbol,omitempty"`
}

// OrderList is the paginated response of the /order route. Shopware
// nests the actual entity list as orders.elements.
type OrderList struct {
	Elements []Order `json:"elements"`
	Total    int     `json:"total,omitempty"`
	Page     int     `json:"page,omitempty"`
	Limit    int     `json:"limit,omitempty"`
}
