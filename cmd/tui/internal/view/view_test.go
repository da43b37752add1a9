package view

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wetrack/wetrack/internal/api"
	"github.com/wetrack/wetrack/internal/budget"
	"github.com/wetrack/wetrack/internal/session"
	"github.com/wetrack/wetrack/internal/storage"
	"github.com/wetrack/wetrack/internal/transaction"
)

// newOfflineFixture builds the client stack against a backend that fails every
// request, with a logged-in session and the given transactions already in
// local storage.
func newOfflineFixture(t *testing.T, cached []transaction.Transaction) (*session.Service, *transaction.Store, *storage.DB) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"backend unavailable"}`))
	}))
	t.Cleanup(srv.Close)

	kv, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, storage.KeyAccessToken, "A1"))
	require.NoError(t, kv.Set(ctx, storage.KeyUser, `{"id":7,"username":"alice","email":"alice@example.com"}`))

	raw, err := json.Marshal(cached)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, storage.KeyTransactions, string(raw)))

	client := api.New(srv.URL, time.Second)
	sessions := session.NewService(client, kv)
	store := transaction.NewStore(client, sessions, kv)
	require.NoError(t, store.LoadCached(ctx))

	return sessions, store, kv
}

func TestTransactionsModel_FetchFailureShowsCachedData(t *testing.T) {
	cached := []transaction.Transaction{{
		ID:          "7",
		Amount:      decimal.RequireFromString("-5.00"),
		Currency:    "GBP",
		Category:    transaction.CategoryFood,
		Description: "Cached lunch",
		Date:        time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
	}}

	_, store, _ := newOfflineFixture(t, cached)

	m := NewTransactionsModel(store, "GBP")

	msg := m.loadTxsCmd()()
	load, ok := msg.(txLoadMsg)
	require.True(t, ok)
	require.Error(t, load.err)
	require.Len(t, load.txs, 1)

	updated, _ := m.Update(load)
	m = updated.(TransactionsModel)

	out := m.View()
	assert.Contains(t, out, "Cached lunch")
	assert.Contains(t, out, "showing cached data")
}

func TestTransactionsModel_TableSortsByDateDescending(t *testing.T) {
	txs := []transaction.Transaction{
		{
			ID:          "1",
			Amount:      decimal.RequireFromString("-1.00"),
			Currency:    "GBP",
			Category:    transaction.CategoryFood,
			Description: "Older",
			Date:        time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:          "2",
			Amount:      decimal.RequireFromString("-2.00"),
			Currency:    "GBP",
			Category:    transaction.CategoryTravel,
			Description: "Newer",
			Date:        time.Date(2024, 10, 20, 0, 0, 0, 0, time.UTC),
		},
	}

	m := NewTransactionsModel(nil, "GBP")

	updated, _ := m.Update(txLoadMsg{txs: txs})
	m = updated.(TransactionsModel)

	out := m.View()
	assert.Less(t, strings.Index(out, "Newer"), strings.Index(out, "Older"))
}

func TestDashboardModel_FetchFailureSummarizesCache(t *testing.T) {
	now := time.Now()
	cached := []transaction.Transaction{{
		ID:          "7",
		Amount:      decimal.RequireFromString("-5.00"),
		Currency:    "GBP",
		Category:    transaction.CategoryFood,
		Description: "Cached lunch",
		Date:        now,
	}}

	sessions, store, kv := newOfflineFixture(t, cached)

	budgets := budget.NewService(kv)
	require.NoError(t, budgets.Set(context.Background(), 7, now, decimal.RequireFromString("100.00")))

	m := NewDashboardModel(sessions, store, budgets, "GBP")

	msg := m.loadCmd()()
	data, ok := msg.(dashboardDataMsg)
	require.True(t, ok)
	require.Error(t, data.err)
	require.NotNil(t, data.user)
	assert.Equal(t, 1, data.count)
	assert.True(t, data.summary.Spent.Equal(decimal.RequireFromString("5")))
	assert.True(t, data.summary.Remaining.Equal(decimal.RequireFromString("95")))

	updated, _ := m.Update(data)
	m = updated.(DashboardModel)
	assert.Contains(t, m.View(), "showing cached data")
}

func TestProfileModel_ShowsCurrentUser(t *testing.T) {
	sessions, _, _ := newOfflineFixture(t, nil)

	m := NewProfileModel(sessions)

	msg := m.loadCmd()()
	data, ok := msg.(profileDataMsg)
	require.True(t, ok)
	require.NoError(t, data.err)

	updated, _ := m.Update(data)
	m = updated.(ProfileModel)

	out := m.View()
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "alice@example.com")
}
