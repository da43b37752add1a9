package transaction

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wetrack/wetrack/internal/api"
)

// ID is a server-assigned identifier. The backend serializes ids as JSON
// numbers; the client treats them as opaque strings and never mints its own.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}

	*id = ID(n.String())

	return nil
}

// Backend category identifiers.
const (
	CategoryFood     = "FOOD"
	CategoryPurchase = "PURCHASE"
	CategoryFixed    = "FIXED"
	CategoryTravel   = "TRAVEL"
)

// CategoryLabels maps category identifiers to their display names, matching
// the category_display field the backend derives.
var CategoryLabels = map[string]string{
	CategoryFood:     "Food",
	CategoryPurchase: "Purchase",
	CategoryFixed:    "Fixed Cost",
	CategoryTravel:   "Travel",
}

// Transaction is the client's view of a server-owned record. Negative amounts
// are expenses by the sign convention carried from the server.
type Transaction struct {
	ID              ID              `json:"id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Category        string          `json:"category"`
	CategoryDisplay string          `json:"category_display,omitempty"`
	Description     string          `json:"description"`
	Date            time.Time       `json:"date"`
}

// Draft is a transaction before the server has assigned it an identity.
type Draft struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
}

// Validate enforces the local preconditions: a zero amount or blank
// description is rejected without a network round trip.
func (d Draft) Validate() error {
	fields := make(map[string][]string)

	if d.Amount.IsZero() {
		fields["amount"] = append(fields["amount"], "Amount must be non-zero")
	}

	if strings.TrimSpace(d.Description) == "" {
		fields["description"] = append(fields["description"], "Description is required")
	}

	if len(fields) > 0 {
		return &api.ValidationError{Fields: fields}
	}

	return nil
}

// Patch carries the fields of a partial update. Nil fields are left untouched
// by the server.
type Patch struct {
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Currency    *string          `json:"currency,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Description *string          `json:"description,omitempty"`
	Date        *time.Time       `json:"date,omitempty"`
}
