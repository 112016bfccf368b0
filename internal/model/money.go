package model

import (
	"fmt"
	"math"
	"strings"
)

// symbolFor maps ISO currency codes to display symbols. Unknown codes
// fall back to the code itself.
func symbolFor(currency string) string {
	switch strings.ToUpper(currency) {
	case "EUR":
		return "€"
	case "USD":
		return "$"
	case "GBP":
		return "£"
	default:
		return strings.ToUpper(currency)
	}
}

// FormatPrice renders an amount in major currency units for display.
// German locales place the symbol after the amount with comma decimals
// ("1.234,56 €"), everything else formats as "€1,234.56".
// Examples: FormatPrice(19.99, "EUR", "de") → "19,99 €"
func FormatPrice(amount float64, currency, locale string) string {
	sym := symbolFor(currency)
	neg := amount < 0
	cents := int64(math.Round(math.Abs(amount) * 100))
	major := cents / 100
	minor := cents % 100

	german := strings.HasPrefix(strings.ToLower(locale), "de")
	var grouped string
	if german {
		grouped = groupDigits(major, ".")
	} else {
		grouped = groupDigits(major, ",")
	}

	sign := ""
	if neg {
		sign = "-"
	}
	if german {
		return fmt.Sprintf("%s%s,%02d %s", sign, grouped, minor, sym)
	}
	return fmt.Sprintf("%s%s%s.%02d", sym, sign, grouped, minor)
}

// FormatMinorUnits renders an amount given in minor units with the
// provided precision, e.g. FormatMinorUnits(1999, 2, "EUR", "de").
func FormatMinorUnits(amount int64, precision int, currency, locale string) string {
	return FormatPrice(float64(amount)/math.Pow10(precision), currency, locale)
}

// groupDigits inserts the thousands separator into a non-negative
// integer.
func groupDigits(n int64, sep string) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
