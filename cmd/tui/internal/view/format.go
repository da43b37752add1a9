package view

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatAmount renders an amount with its currency symbol, e.g. "£-8.74".
// Unknown codes fall back to the bare two-decimal form.
func FormatAmount(amount decimal.Decimal, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return amount.StringFixed(2)
	}

	return printer.Sprintf("%v%s", currency.Symbol(unit), amount.StringFixed(2))
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatMonth formats a time.Time into a month heading like "October 2024".
func FormatMonth(t time.Time) string {
	return t.Format("January 2006")
}
