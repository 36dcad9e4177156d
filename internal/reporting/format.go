package reporting

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// money formats a currency amount with two decimals, rounding half away from zero.
func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// percent formats a fraction as a percentage with two decimals, e.g. 0.0123 -> "1.23%".
func percent(v float64) string {
	return decimal.NewFromFloat(v).Shift(2).StringFixed(2) + "%"
}

// ratio formats a unitless value with six decimals.
func ratio(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(6)
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
