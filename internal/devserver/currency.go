package devserver

import (
	"net/http"

	"github.com/shopspring/decimal"
)

// Static development rates; the real backend proxies a rate provider.
var rates = map[string]decimal.Decimal{
	"GBP:USD": decimal.RequireFromString("1.27"),
	"USD:GBP": decimal.RequireFromString("0.79"),
	"GBP:EUR": decimal.RequireFromString("1.17"),
	"EUR:GBP": decimal.RequireFromString("0.85"),
	"USD:EUR": decimal.RequireFromString("0.92"),
	"EUR:USD": decimal.RequireFromString("1.09"),
}

func lookupRate(from, to string) (decimal.Decimal, bool) {
	if from == to {
		return decimal.NewFromInt(1), true
	}

	rate, ok := rates[from+":"+to]

	return rate, ok
}

func (s *Server) convertCurrency(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("amount")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Amount is required"})
		return
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid amount format"})
		return
	}

	from := queryDefault(r, "from", "GBP")
	to := queryDefault(r, "to", "USD")

	rate, ok := lookupRate(from, to)
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Currency conversion failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"amount": amount,
		"from":   from,
		"to":     to,
		"rate":   rate,
		"result": amount.Mul(rate),
	})
}

func (s *Server) exchangeRate(w http.ResponseWriter, r *http.Request) {
	from := queryDefault(r, "from", "GBP")
	to := queryDefault(r, "to", "USD")

	rate, ok := lookupRate(from, to)
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Failed to fetch exchange rate"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"from": from, "to": to, "rate": rate})
}

func queryDefault(r *http.Request, key, fallback string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}

	return fallback
}
