package checkout

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/winni-bit/sw-demo-kiosk/internal/locale"
	"github.com/winni-bit/sw-demo-kiosk/internal/model"
)

// Field names the address form fields. The JSON names match the
// Store API customer payloads so the form round-trips cleanly.
type Field string

const (
	FieldEmail          Field = "email"
	FieldFirstName      Field = "firstName"
	FieldLastName       Field = "lastName"
	FieldStreet         Field = "street"
	FieldZipcode        Field = "zipcode"
	FieldCity           Field = "city"
	FieldCountryID      Field = "countryId"
	FieldCountryStateID Field = "countryStateId"
	FieldSalutationID   Field = "salutationId"
	FieldPhoneNumber    Field = "phoneNumber"
	FieldCompany        Field = "company"
)

// requiredFields must be non-empty before the address step passes.
var requiredFields = []Field{
	FieldEmail,
	FieldFirstName,
	FieldLastName,
	FieldStreet,
	FieldZipcode,
	FieldCity,
	FieldCountryID,
	FieldSalutationID,
}

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type formMessages struct {
	required       string
	invalidEmail   string
	invalidZipcode string
	minLength      string // format string taking the minimum
}

var formTranslations = map[locale.Language]formMessages{
	locale.German: {
		required:       "Dieses Feld ist erforderlich",
		invalidEmail:   "Bitte geben Sie eine gültige E-Mail-Adresse ein",
		invalidZipcode: "Bitte geben Sie eine gültige Postleitzahl ein",
		minLength:      "Mindestens %d Zeichen erforderlich",
	},
	locale.English: {
		required:       "This field is required",
		invalidEmail:   "Please enter a valid email address",
		invalidZipcode: "Please enter a valid postal code",
		minLength:      "At least %d characters required",
	},
}

// FormData carries the checkout address form values.
type FormData struct {
	Email          string `json:"email"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Street         string `json:"street"`
	Zipcode        string `json:"zipcode"`
	City           string `json:"city"`
	CountryID      string `json:"countryId"`
	CountryStateID string `json:"countryStateId,omitempty"`
	SalutationID   string `json:"salutationId"`
	PhoneNumber    string `json:"phoneNumber,omitempty"`
	Company        string `json:"company,omitempty"`
}

func (d *FormData) get(f Field) string {
	switch f {
	case FieldEmail:
		return d.Email
	case FieldFirstName:
		return d.FirstName
	case FieldLastName:
		return d.LastName
	case FieldStreet:
		return d.Street
	case FieldZipcode:
		return d.Zipcode
	case FieldCity:
		return d.City
	case FieldCountryID:
		return d.CountryID
	case FieldCountryStateID:
		return d.CountryStateID
	case FieldSalutationID:
		return d.SalutationID
	case FieldPhoneNumber:
		return d.PhoneNumber
	case FieldCompany:
		return d.Company
	}
	return ""
}

// Form validates checkout address input with localized messages.
// Validation errors are kept per field so the kiosk can highlight
// them inline.
type Form struct {
	Data FormData

	lang   func() locale.Language
	errors map[Field]string
}

// NewForm creates an empty form. The language callback decides the
// message language at validation time, so a language switch mid-form
// relabels subsequent errors.
func NewForm(lang func() locale.Language) *Form {
	if lang == nil {
		lang = func() locale.Language { return locale.German }
	}
	return &Form{lang: lang, errors: make(map[Field]string)}
}

func (f *Form) messages() formMessages {
	return formTranslations[f.lang()]
}

// ValidateField checks one field and records its error. Returns the
// message, or "" if the field is valid.
func (f *Form) ValidateField(field Field) string {
	delete(f.errors, field)
	value := f.Data.get(field)
	t := f.messages()

	if isRequired(field) && strings.TrimSpace(value) == "" {
		f.errors[field] = t.required
		return t.required
	}

	switch field {
	case FieldEmail:
		if value != "" && !emailRegex.MatchString(value) {
			f.errors[field] = t.invalidEmail
			return t.invalidEmail
		}
	case FieldZipcode:
		if value != "" && len(value) < 4 {
			f.errors[field] = t.invalidZipcode
			return t.invalidZipcode
		}
	case FieldFirstName, FieldLastName:
		if value != "" && len([]rune(value)) < 2 {
			msg := fmt.Sprintf(t.minLength, 2)
			f.errors[field] = msg
			return msg
		}
	}
	return ""
}

// Validate checks every required field and returns whether the form
// passes as a whole.
func (f *Form) Validate() bool {
	valid := true
	for _, field := range requiredFields {
		if f.ValidateField(field) != "" {
			valid = false
		}
	}
	return valid
}

// Errors returns the current per-field validation errors.
func (f *Form) Errors() map[Field]string {
	out := make(map[Field]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// ClearError drops the error of one field, e.g. when the user edits it.
func (f *Form) ClearError(field Field) {
	delete(f.errors, field)
}

// ClearErrors drops all validation errors.
func (f *Form) ClearErrors() {
	f.errors = make(map[Field]string)
}

// IsComplete reports whether all required fields hold plausible
// values, without mutating the error state.
func (f *Form) IsComplete() bool {
	for _, field := range requiredFields {
		if strings.TrimSpace(f.Data.get(field)) == "" {
			return false
		}
	}
	return emailRegex.MatchString(f.Data.Email)
}

// Registration builds the guest registration payload for a walk-up
// checkout from the form values. The kiosk never creates password
// accounts; shoppers with one log in instead.
func (f *Form) Registration() model.Registration {
	d := f.Data
	return model.Registration{
		Guest:                  true,
		SalutationID:           d.SalutationID,
		FirstName:              d.FirstName,
		LastName:               d.LastName,
		Email:                  d.Email,
		AcceptedDataProtection: true,
		BillingAddress: &model.Address{
			FirstName:    d.FirstName,
			LastName:     d.LastName,
			Street:       d.Street,
			Zipcode:      d.Zipcode,
			City:         d.City,
			CountryID:    d.CountryID,
			PhoneNumber:  d.PhoneNumber,
			Company:      d.Company,
			SalutationID: d.SalutationID,
		},
	}
}

// Prefill fills the form from a logged-in customer and their default
// billing address.
func (f *Form) Prefill(customer *model.Customer) {
	if customer == nil {
		return
	}
	f.Data.Email = customer.Email
	f.Data.FirstName = customer.FirstName
	f.Data.LastName = customer.LastName
	f.Data.SalutationID = customer.SalutationID

	if addr := customer.DefaultBillingAddress; addr != nil {
		f.Data.Street = addr.Street
		f.Data.Zipcode = addr.Zipcode
		f.Data.City = addr.City
		f.Data.CountryID = addr.CountryID
		f.Data.PhoneNumber = addr.PhoneNumber
		f.Data.Company = addr.Company
	}
}

// Reset clears values and errors.
func (f *Form) Reset() {
	f.Data = FormData{}
	f.ClearErrors()
}

func isRequired(field Field) bool {
	for _, f := range requiredFields {
		if f == field {
			return true
		}
	}
	return false
}
