package budget

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wetrack/wetrack/internal/api"
	"github.com/wetrack/wetrack/internal/storage"
	"github.com/wetrack/wetrack/internal/transaction"
)

// Service stores one spending goal per user and calendar month, locally only:
// the backend has no budget endpoint. A missing or unreadable budget reads as
// zero.
type Service struct {
	kv storage.KV
}

func NewService(kv storage.KV) *Service {
	return &Service{kv: kv}
}

// Summary is the month's budget against what was actually spent.
type Summary struct {
	Budget       decimal.Decimal
	Spent        decimal.Decimal
	Remaining    decimal.Decimal
	PercentSpent float64
}

// Set creates or overwrites the month's spending goal.
func (s *Service) Set(ctx context.Context, userID int64, month time.Time, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return api.NewValidationError("amount", "Budget must not be negative")
	}

	if err := s.kv.Set(ctx, key(userID, month), amount.StringFixed(2)); err != nil {
		return fmt.Errorf("storing budget: %w", err)
	}

	return nil
}

// Get returns the month's spending goal, zero when unset.
func (s *Service) Get(ctx context.Context, userID int64, month time.Time) decimal.Decimal {
	raw, err := s.kv.Get(ctx, key(userID, month))
	if err != nil {
		return decimal.Zero
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}

	return amount
}

// Summarize derives spent/remaining/percentage for the month from the given
// transactions. Only expenses (negative amounts) dated in the month count.
func (s *Service) Summarize(ctx context.Context, userID int64, month time.Time, txs []transaction.Transaction) Summary {
	budget := s.Get(ctx, userID, month)
	spent := decimal.Zero

	for _, tx := range txs {
		if tx.Date.Year() != month.Year() || tx.Date.Month() != month.Month() {
			continue
		}

		if tx.Amount.IsNegative() {
			spent = spent.Add(tx.Amount.Neg())
		}
	}

	summary := Summary{
		Budget:    budget,
		Spent:     spent,
		Remaining: budget.Sub(spent),
	}

	if budget.IsPositive() {
		summary.PercentSpent = spent.Div(budget).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}

	return summary
}

func key(userID int64, month time.Time) string {
	return fmt.Sprintf("budget_%d_%s", userID, month.Format("2006-01"))
}
