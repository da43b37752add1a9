package transaction_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/wetrack/wetrack/internal/api"
	"github.com/wetrack/wetrack/internal/storage"
	"github.com/wetrack/wetrack/internal/transaction"
)

type staticTokens struct {
	token        string
	refreshed    string
	refreshCalls int
}

func (s *staticTokens) AccessToken(context.Context) (string, error) {
	return s.token, nil
}

func (s *staticTokens) Refresh(context.Context) (string, error) {
	s.refreshCalls++
	if s.refreshed == "" {
		return "", api.ErrRefreshFailed
	}

	return s.refreshed, nil
}

func newStore(t *testing.T, handler http.Handler) (*transaction.Store, *storage.DB, *staticTokens, context.Context) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	kv, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	tokens := &staticTokens{token: "A1", refreshed: "A2"}
	store := transaction.NewStore(api.New(srv.URL, 30*time.Second), tokens, kv)

	return store, kv, tokens, context.Background()
}

func TestStore_FetchAll(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":1,"amount":"-12.50","currency":"GBP","category":"FOOD","category_display":"Food","description":"Lunch","date":"2024-10-17T00:00:00+00:00"},
			{"id":2,"amount":"-8.74","currency":"GBP","category":"TRAVEL","category_display":"Travel","description":"Tube to class","date":"2024-10-18T00:00:00+00:00"}
		]`))
	})

	store, _, _, ctx := newStore(t, mux)

	txs, err := store.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, transaction.ID("1"), txs[0].ID)
	assert.Equal(t, transaction.ID("2"), txs[1].ID)
	assert.True(t, txs[1].Amount.Equal(decimal.RequireFromString("-8.74")))
	assert.False(t, store.Loading())
	assert.NoError(t, store.Err())
}

func TestStore_FetchAllRefreshesOnceOn401(t *testing.T) {
	var requests int

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("Authorization") != "Bearer A2" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"token expired"}`))

			return
		}

		w.Write([]byte(`[{"id":1,"amount":"-1.00","currency":"GBP","category":"FOOD","description":"x","date":"2024-10-18T00:00:00+00:00"}]`))
	})

	store, _, tokens, ctx := newStore(t, mux)

	txs, err := store.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
	assert.Equal(t, 1, tokens.refreshCalls)
	assert.Equal(t, 2, requests)
}

func TestStore_FetchAllSecond401PreservesCache(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"token expired"}`))
	})

	store, kv, tokens, ctx := newStore(t, mux)

	cached := `[{"id":"7","amount":"-5.00","currency":"GBP","category":"FOOD","description":"Cached","date":"2024-10-01T00:00:00Z"}]`
	require.NoError(t, kv.Set(ctx, storage.KeyTransactions, cached))
	require.NoError(t, store.LoadCached(ctx))

	_, err := store.FetchAll(ctx)
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Equal(t, 1, tokens.refreshCalls)

	// Stale-but-available beats empty.
	all := store.All()
	require.Len(t, all, 1)
	assert.Equal(t, "Cached", all[0].Description)
	assert.False(t, store.Loading())
	assert.Error(t, store.Err())
}

func TestStore_AddRejectsInvalidDraftLocally(t *testing.T) {
	store, _, _, ctx := newStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no network call expected for invalid draft")
	}))

	type testCase struct {
		name      string
		draft     transaction.Draft
		wantField string
	}

	tests := []testCase{
		{
			name: "ZeroAmount",
			draft: transaction.Draft{
				Currency:    "GBP",
				Category:    transaction.CategoryFood,
				Description: "Lunch",
				Date:        time.Now(),
			},
			wantField: "amount",
		},
		{
			name: "BlankDescription",
			draft: transaction.Draft{
				Amount:      decimal.NewFromInt(-4),
				Currency:    "GBP",
				Category:    transaction.CategoryFood,
				Description: "   ",
				Date:        time.Now(),
			},
			wantField: "description",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Add(ctx, tt.draft)

			var verr *api.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.wantField)
			assert.Empty(t, store.All())
		})
	}
}

func TestStore_AddAppendsServerTransaction(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"42","amount":"-8.74","currency":"GBP","category":"1","description":"Tube to class","date":"2024-10-18T00:00:00+00:00"}`))
	})

	store, kv, _, ctx := newStore(t, mux)

	created, err := store.Add(ctx, transaction.Draft{
		Amount:      decimal.RequireFromString("-8.74"),
		Currency:    "GBP",
		Category:    "1",
		Description: "Tube to class",
		Date:        time.Date(2024, 10, 18, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, transaction.ID("42"), created.ID)

	all := store.All()
	require.Len(t, all, 1)
	assert.Equal(t, transaction.ID("42"), all[0].ID)

	// The mirror is persisted too.
	raw, err := kv.Get(ctx, storage.KeyTransactions)
	require.NoError(t, err)
	assert.Contains(t, raw, `"42"`)
}

func TestStore_AddFailureLeavesCacheUnchanged(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"category":["Invalid category."]}`))
	})

	store, _, _, ctx := newStore(t, mux)

	_, err := store.Add(ctx, transaction.Draft{
		Amount:      decimal.NewFromInt(-4),
		Currency:    "GBP",
		Category:    "NOPE",
		Description: "Lunch",
		Date:        time.Now(),
	})

	var verr *api.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, store.All())
}

func TestStore_UpdateReplacesCachedEntry(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /api/transactions/42/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"42","amount":"-9.00","currency":"GBP","category":"1","description":"Tube home","date":"2024-10-18T00:00:00+00:00"}`))
	})

	store, kv, _, ctx := newStore(t, mux)

	cached := `[{"id":"42","amount":"-8.74","currency":"GBP","category":"1","description":"Tube to class","date":"2024-10-18T00:00:00Z"}]`
	require.NoError(t, kv.Set(ctx, storage.KeyTransactions, cached))
	require.NoError(t, store.LoadCached(ctx))

	desc := "Tube home"
	amount := decimal.RequireFromString("-9.00")

	updated, err := store.Update(ctx, "42", transaction.Patch{Description: &desc, Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, "Tube home", updated.Description)

	all := store.All()
	require.Len(t, all, 1)
	assert.Equal(t, "Tube home", all[0].Description)
}

func TestStore_UpdateUnknownIDLeavesCacheUnchanged(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /api/transactions/99/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"99","amount":"-1.00","currency":"GBP","category":"1","description":"Elsewhere","date":"2024-10-18T00:00:00+00:00"}`))
	})

	store, kv, _, ctx := newStore(t, mux)

	cached := `[{"id":"42","amount":"-8.74","currency":"GBP","category":"1","description":"Tube to class","date":"2024-10-18T00:00:00Z"}]`
	require.NoError(t, kv.Set(ctx, storage.KeyTransactions, cached))
	require.NoError(t, store.LoadCached(ctx))

	desc := "Elsewhere"

	_, err := store.Update(ctx, "99", transaction.Patch{Description: &desc})
	require.NoError(t, err)

	all := store.All()
	require.Len(t, all, 1)
	assert.Equal(t, transaction.ID("42"), all[0].ID)
	assert.Equal(t, "Tube to class", all[0].Description)
}

func TestStore_Delete(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/transactions/42/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("DELETE /api/transactions/99/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	store, kv, _, ctx := newStore(t, mux)

	cached := `[{"id":"42","amount":"-8.74","currency":"GBP","category":"1","description":"Tube to class","date":"2024-10-18T00:00:00Z"}]`
	require.NoError(t, kv.Set(ctx, storage.KeyTransactions, cached))
	require.NoError(t, store.LoadCached(ctx))

	// Unknown id is a local no-op.
	require.NoError(t, store.Delete(ctx, "99"))
	assert.Len(t, store.All(), 1)

	require.NoError(t, store.Delete(ctx, "42"))
	assert.Empty(t, store.All())
}

func TestStore_CacheRoundTrip(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":3,"amount":"-1.10","currency":"USD","category":"FOOD","description":"c","date":"2024-11-03T00:00:00+00:00"},
			{"id":1,"amount":"20.00","currency":"USD","category":"FIXED","description":"a","date":"2024-11-01T00:00:00+00:00"},
			{"id":2,"amount":"-3.30","currency":"USD","category":"TRAVEL","description":"b","date":"2024-11-02T00:00:00+00:00"}
		]`))
	})

	store, kv, tokens, ctx := newStore(t, mux)

	fetched, err := store.FetchAll(ctx)
	require.NoError(t, err)

	reloaded := transaction.NewStore(api.New("http://127.0.0.1:0", time.Second), tokens, kv)
	require.NoError(t, reloaded.LoadCached(ctx))

	got := reloaded.All()
	require.Len(t, got, len(fetched))

	for i := range fetched {
		assert.Equal(t, fetched[i].ID, got[i].ID)
		assert.Equal(t, fetched[i].Description, got[i].Description)
		assert.True(t, fetched[i].Amount.Equal(got[i].Amount))
		assert.True(t, fetched[i].Date.Equal(got[i].Date))
	}
}

func TestStore_ForMonth(t *testing.T) {
	store, kv, _, ctx := newStore(t, http.NewServeMux())

	cached := `[
		{"id":"1","amount":"-100.00","currency":"USD","category":"FIXED","description":"Rent","date":"2024-11-01T00:00:00Z"},
		{"id":"2","amount":"-23.45","currency":"USD","category":"FOOD","description":"Groceries","date":"2024-11-12T00:00:00Z"},
		{"id":"3","amount":"-50.00","currency":"USD","category":"FOOD","description":"October dinner","date":"2024-10-20T00:00:00Z"}
	]`
	require.NoError(t, kv.Set(ctx, storage.KeyTransactions, cached))
	require.NoError(t, store.LoadCached(ctx))

	nov := store.ForMonth(2024, time.November)
	assert.Len(t, nov, 2)
}

func TestStore_PersistFailureSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := storage.NewMockKV(ctrl)
	kv.EXPECT().Set(gomock.Any(), storage.KeyTransactions, gomock.Any()).Return(assert.AnError)

	store := transaction.NewStore(api.New(srv.URL, time.Second), &staticTokens{token: "A1"}, kv)

	_, err := store.FetchAll(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	assert.False(t, store.Loading())
}
