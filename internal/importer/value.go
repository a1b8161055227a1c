package importer

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// parseValue reads a monetary value. Files delimited by something other than a
// comma may use European formatting, "1.234,56" for 1234.56. A trailing
// currency marker is ignored.
func parseValue(s string, comma rune) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimSuffix(clean, "€")
	clean = strings.TrimSuffix(clean, "EUR")
	clean = strings.ReplaceAll(strings.TrimSpace(clean), " ", "")

	if clean == "" {
		return decimal.Zero, errors.New("missing")
	}

	if comma != ',' && strings.Contains(clean, ",") {
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	}

	return decimal.NewFromString(clean)
}
