package model

// Customer is the Store API customer entity. Guest accounts created
// during checkout carry Guest=true and do not count as logged in.
type Customer struct {
	ID                     string      `json:"id"`
	CustomerNumber         string      `json:"customerNumber,omitempty"`
	Email                  string      `json:"email"`
	FirstName              string      `json:"firstName"`
	LastName               string      `json:"lastName"`
	SalutationID           string      `json:"salutationId,omitempty"`
	Salutation             *Salutation `json:"salutation,omitempty"`
	Guest                  bool        `json:"guest"`
	Active                 bool        `json:"active,omitempty"`
	DefaultBillingAddress  *Address    `json:"defaultBillingAddress,omitempty"`
	DefaultShippingAddress *Address    `json:"defaultShippingAddress,omitempty"`
}

// FullName joins first and last name for display.
func (c *Customer) FullName() string {
	if c == nil {
		return ""
	}
	if c.FirstName == "" {
		return c.LastName
	}
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// Address is a customer address entity.
type Address struct {
	ID           string   `json:"id,omitempty"`
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
	Street       string   `json:"street"`
	Zipcode      string   `json:"zipcode"`
	City         string   `json:"city"`
	CountryID    string   `json:"countryId,omitempty"`
	Country      *Country `json:"country,omitempty"`
	PhoneNumber  string   `json:"phoneNumber,omitempty"`
	Company      string   `json:"company,omitempty"`
	SalutationID string   `json:"salutationId,omitempty"`
}

// Country is a Store API country entity.
type Country struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	ISO  string `json:"iso,omitempty"`
}

// Salutation is a Store API salutation entity.
type Salutation struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	LetterName  string `json:"letterName,omitempty"`
}

// Registration is the payload for /account/register. Shopware creates
// guest accounts when Guest is set, which is how the kiosk checks out
// walk-up customers.
type Registration struct {
	Guest                  bool     `json:"guest"`
	SalutationID           string   `json:"salutationId,omitempty"`
	FirstName              string   `json:"firstName"`
	LastName               string   `json:"lastName"`
	Email                  string   `json:"email"`
	Password               string   `json:"password,omitempty"`
	StorefrontURL          string   `json:"storefrontUrl"`
	AcceptedDataProtection bool     `json:"acceptedDataProtection"`
	BillingAddress         *Address `json:"billingAddress,omitempty"`
	ShippingAddress        *Address `json:"shippingAddress,omitempty"`
}
