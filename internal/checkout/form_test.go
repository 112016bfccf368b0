package checkout

import (
	"testing"

	"github.com/winni-bit/sw-demo-kiosk/internal/locale"
	"github.com/winni-bit/sw-demo-kiosk/internal/model"
)

func germanForm() *Form {
	return NewForm(func() locale.Language { return locale.German })
}

func completeData() FormData {
	return FormData{
		Email:        "kunde@example.com",
		FirstName:    "Max",
		LastName:     "Mustermann",
		Street:       "Musterstraße 1",
		Zipcode:      "48143",
		City:         "Münster",
		CountryID:    "country-de",
		SalutationID: "sal-1",
	}
}

func TestValidateField(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		value string
		want  string
	}{
		{"empty email", FieldEmail, "", "Dieses Feld ist erforderlich"},
		{"malformed email", FieldEmail, "not-an-email", "Bitte geben Sie eine gültige E-Mail-Adresse ein"},
		{"email without tld", FieldEmail, "a@b", "Bitte geben Sie eine gültige E-Mail-Adresse ein"},
		{"valid email", FieldEmail, "a@b.de", ""},
		{"empty zipcode", FieldZipcode, "", "Dieses Feld ist erforderlich"},
		{"short zipcode", FieldZipcode, "123", "Bitte geben Sie eine gültige Postleitzahl ein"},
		{"valid zipcode", FieldZipcode, "48143", ""},
		{"single letter first name", FieldFirstName, "M", "Mindestens 2 Zeichen erforderlich"},
		{"valid first name", FieldFirstName, "Max", ""},
		{"empty optional company", FieldCompany, "", ""},
		{"empty optional phone", FieldPhoneNumber, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := germanForm()
			setField(f, tt.field, tt.value)
			if got := f.ValidateField(tt.field); got != tt.want {
				t.Errorf("ValidateField(%s) = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

func setField(f *Form, field Field, value string) {
	switch field {
	case FieldEmail:
		f.Data.Email = value
	case FieldFirstName:
		f.Data.FirstName = value
	case FieldZipcode:
		f.Data.Zipcode = value
	case FieldCompany:
		f.Data.Company = value
	case FieldPhoneNumber:
		f.Data.PhoneNumber = value
	}
}

func TestValidateFieldEnglishMessages(t *testing.T) {
	f := NewForm(func() locale.Language { return locale.English })
	if got := f.ValidateField(FieldEmail); got != "This field is required" {
		t.Errorf("empty email = %q", got)
	}
	f.Data.FirstName = "M"
	if got := f.ValidateField(FieldFirstName); got != "At least 2 characters required" {
		t.Errorf("short first name = %q", got)
	}
}

func TestValidate(t *testing.T) {
	f := germanForm()
	if f.Validate() {
		t.Error("empty form should not validate")
	}
	if len(f.Errors()) != len(requiredFields) {
		t.Errorf("got %d errors, want one per required field (%d)", len(f.Errors()), len(requiredFields))
	}

	f.Data = completeData()
	if !f.Validate() {
		t.Errorf("complete form should validate, errors: %v", f.Errors())
	}
	if len(f.Errors()) != 0 {
		t.Errorf("valid form should carry no errors, got %v", f.Errors())
	}
}

func TestIsComplete(t *testing.T) {
	f := germanForm()
	if f.IsComplete() {
		t.Error("empty form should not be complete")
	}

	f.Data = completeData()
	if !f.IsComplete() {
		t.Error("filled form should be complete")
	}

	f.Data.Email = "not-an-email"
	if f.IsComplete() {
		t.Error("broken email should block completeness")
	}

	f.Data = completeData()
	f.Data.City = "   "
	if f.IsComplete() {
		t.Error("whitespace-only field should block completeness")
	}
}

func TestPrefill(t *testing.T) {
	f := germanForm()
	f.Prefill(&model.Customer{
		Email:        "kunde@example.com",
		FirstName:    "Erika",
		LastName:     "Musterfrau",
		SalutationID: "sal-2",
		DefaultBillingAddress: &model.Address{
			Street:      "Hauptstraße 7",
			Zipcode:     "10115",
			City:        "Berlin",
			CountryID:   "country-de",
			PhoneNumber: "030123456",
			Company:     "Muster GmbH",
		},
	})

	if f.Data.Email != "kunde@example.com" || f.Data.FirstName != "Erika" {
		t.Errorf("customer fields not prefilled: %+v", f.Data)
	}
	if f.Data.Street != "Hauptstraße 7" || f.Data.City != "Berlin" || f.Data.Company != "Muster GmbH" {
		t.Errorf("address fields not prefilled: %+v", f.Data)
	}
	if !f.IsComplete() {
		t.Errorf("prefilled form should be complete, data: %+v", f.Data)
	}
}

func TestPrefillNilCustomer(t *testing.T) {
	f := germanForm()
	f.Prefill(nil)
	if f.Data != (FormData{}) {
		t.Errorf("nil customer should not change the form: %+v", f.Data)
	}
}

func TestRegistration(t *testing.T) {
	f := germanForm()
	f.Data = completeData()
	f.Data.Company = "Muster GmbH"

	reg := f.Registration()
	if !reg.Guest {
		t.Error("kiosk registration should be a guest account")
	}
	if reg.Password != "" {
		t.Error("guest registration must not carry a password")
	}
	if !reg.AcceptedDataProtection {
		t.Error("data protection must be accepted")
	}
	if reg.Email != "kunde@example.com" || reg.FirstName != "Max" {
		t.Errorf("customer fields = %+v", reg)
	}

	addr := reg.BillingAddress
	if addr == nil {
		t.Fatal("billing address missing")
	}
	if addr.Street != "Musterstraße 1" || addr.Zipcode != "48143" || addr.City != "Münster" {
		t.Errorf("address = %+v", addr)
	}
	if addr.CountryID != "country-de" || addr.Company != "Muster GmbH" {
		t.Errorf("address = %+v", addr)
	}
	if addr.FirstName != "Max" || addr.LastName != "Mustermann" {
		t.Errorf("address name = %s %s, want form name", addr.FirstName, addr.LastName)
	}
}

func TestReset(t *testing.T) {
	f := germanForm()
	f.Data = completeData()
	f.Validate()
	f.Data.Email = ""
	f.Validate()

	f.Reset()
	if f.Data != (FormData{}) {
		t.Errorf("Reset() should clear values, got %+v", f.Data)
	}
	if len(f.Errors()) != 0 {
		t.Errorf("Reset() should clear errors, got %v", f.Errors())
	}
}

func TestClearError(t *testing.T) {
	f := germanForm()
	f.ValidateField(FieldEmail)
	if len(f.Errors()) != 1 {
		t.Fatalf("expected one error, got %v", f.Errors())
	}
	f.ClearError(FieldEmail)
	if len(f.Errors()) != 0 {
		t.Errorf("ClearError should drop the field error, got %v", f.Errors())
	}
}

func TestSteps(t *testing.T) {
	s := NewSteps()
	if s.Current() != StepAddress {
		t.Errorf("Current() = %d, want address step", s.Current())
	}

	s.Next()
	if s.Current() != StepPayment {
		t.Errorf("after Next() Current() = %d, want payment step", s.Current())
	}
	if !s.IsCompleted(StepAddress) {
		t.Error("Next() should complete the left step")
	}

	s.Next()
	s.Next() // already at the last step
	if s.Current() != StepConfirmation {
		t.Errorf("Current() = %d, should stop at confirmation", s.Current())
	}

	s.Prev()
	if s.Current() != StepPayment {
		t.Errorf("after Prev() Current() = %d, want payment step", s.Current())
	}

	s.GoTo(StepAddress)
	if s.Current() != StepAddress {
		t.Errorf("GoTo(address) Current() = %d", s.Current())
	}
	s.GoTo(99)
	if s.Current() != StepAddress {
		t.Error("GoTo with unknown step should be ignored")
	}

	s.Reset()
	if s.Current() != StepAddress || s.IsCompleted(StepAddress) {
		t.Error("Reset() should return to a fresh address step")
	}
}
