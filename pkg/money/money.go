// Package money formats amounts for display.
package money

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Format renders amount with two decimals, English digit grouping and the
// given currency symbol, e.g. "$1,234.50" or "-$5.00".
func Format(amount float64, symbol string) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}
	sign := ""
	if amount < 0 && math.Round(amount*100) != 0 {
		sign = "-"
	}
	return sign + symbol + printer.Sprintf("%.2f", math.Abs(amount))
}
