package currency

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/wetrack/wetrack/internal/api"
)

// Service converts amounts between currencies via the backend, which proxies
// a rate provider. The endpoints are unauthenticated.
type Service struct {
	client *api.Client
}

func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// Conversion mirrors the backend's convert response.
type Conversion struct {
	Amount decimal.Decimal `json:"amount"`
	From   string          `json:"from"`
	To     string          `json:"to"`
	Rate   decimal.Decimal `json:"rate"`
	Result decimal.Decimal `json:"result"`
}

func (s *Service) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (*Conversion, error) {
	q := url.Values{
		"amount": {amount.String()},
		"from":   {from},
		"to":     {to},
	}

	var out Conversion
	if err := s.client.Do(ctx, http.MethodGet, "/api/currency/convert/?"+q.Encode(), nil, &out); err != nil {
		return nil, fmt.Errorf("converting %s %s to %s: %w", amount, from, to, err)
	}

	return &out, nil
}

// Rate fetches the current exchange rate between two currencies.
func (s *Service) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	q := url.Values{
		"from": {from},
		"to":   {to},
	}

	var out struct {
		Rate decimal.Decimal `json:"rate"`
	}

	if err := s.client.Do(ctx, http.MethodGet, "/api/currency/rate/?"+q.Encode(), nil, &out); err != nil {
		return decimal.Zero, fmt.Errorf("fetching %s/%s rate: %w", from, to, err)
	}

	return out.Rate, nil
}
