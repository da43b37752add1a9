package transaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/wetrack/wetrack/internal/api"
	"github.com/wetrack/wetrack/internal/storage"
)

// Store is the client's cached, synchronized view of the user's transactions.
// It mediates all CRUD against the backend through the authorized-request
// wrapper and mirrors the collection into durable storage for offline reuse.
// The backend stays the single source of truth: the cache only ever holds
// server-returned records.
type Store struct {
	client *api.Client
	tokens api.TokenSource
	kv     storage.KV

	mu      sync.Mutex
	cache   []Transaction
	loading bool
	lastErr error
}

func NewStore(client *api.Client, tokens api.TokenSource, kv storage.KV) *Store {
	return &Store{client: client, tokens: tokens, kv: kv}
}

// LoadCached rehydrates the in-memory cache from durable storage. A missing
// key is an empty collection, not an error.
func (s *Store) LoadCached(ctx context.Context) error {
	raw, err := s.kv.Get(ctx, storage.KeyTransactions)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}

		return fmt.Errorf("loading cached transactions: %w", err)
	}

	var txs []Transaction
	if err := json.Unmarshal([]byte(raw), &txs); err != nil {
		return fmt.Errorf("decoding cached transactions: %w", err)
	}

	s.mu.Lock()
	s.cache = txs
	s.mu.Unlock()

	return nil
}

// FetchAll replaces the whole cache with the server's collection. On failure
// the previous cache is preserved: stale data beats an empty screen.
func (s *Store) FetchAll(ctx context.Context) (txs []Transaction, err error) {
	s.begin()
	defer func() { s.finish(err) }()

	var fetched []Transaction
	if err = s.client.DoAuthorized(ctx, s.tokens, http.MethodGet, "/api/transactions/", nil, &fetched); err != nil {
		return nil, fmt.Errorf("fetching transactions: %w", err)
	}

	s.mu.Lock()
	s.cache = fetched
	s.mu.Unlock()

	if err = s.persist(ctx); err != nil {
		return nil, err
	}

	return s.All(), nil
}

// Add creates the draft server-side and appends the canonical record the
// server returns. A locally invalid draft never reaches the network.
func (s *Store) Add(ctx context.Context, draft Draft) (tx *Transaction, err error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	s.begin()
	defer func() { s.finish(err) }()

	var created Transaction
	if err = s.client.DoAuthorized(ctx, s.tokens, http.MethodPost, "/api/transactions/", draft, &created); err != nil {
		return nil, fmt.Errorf("creating transaction: %w", err)
	}

	s.mu.Lock()
	s.cache = append(s.cache, created)
	s.mu.Unlock()

	if err = s.persist(ctx); err != nil {
		return nil, err
	}

	return &created, nil
}

// Update patches the record server-side and replaces the matching cached
// entry. An id absent from the cache leaves it unchanged.
func (s *Store) Update(ctx context.Context, id ID, patch Patch) (tx *Transaction, err error) {
	s.begin()
	defer func() { s.finish(err) }()

	var updated Transaction
	if err = s.client.DoAuthorized(ctx, s.tokens, http.MethodPatch, "/api/transactions/"+string(id)+"/", patch, &updated); err != nil {
		return nil, fmt.Errorf("updating transaction %s: %w", id, err)
	}

	s.mu.Lock()
	for i := range s.cache {
		if s.cache[i].ID == id {
			s.cache[i] = updated
			break
		}
	}
	s.mu.Unlock()

	if err = s.persist(ctx); err != nil {
		return nil, err
	}

	return &updated, nil
}

// Delete removes the record server-side and drops the matching cached entry.
func (s *Store) Delete(ctx context.Context, id ID) (err error) {
	s.begin()
	defer func() { s.finish(err) }()

	if err = s.client.DoAuthorized(ctx, s.tokens, http.MethodDelete, "/api/transactions/"+string(id)+"/", nil, nil); err != nil {
		return fmt.Errorf("deleting transaction %s: %w", id, err)
	}

	s.mu.Lock()
	for i := range s.cache {
		if s.cache[i].ID == id {
			s.cache = append(s.cache[:i], s.cache[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	return s.persist(ctx)
}

// All returns a copy of the cached collection in its stored order. Consumers
// re-derive any ordering they need.
func (s *Store) All() []Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Transaction, len(s.cache))
	copy(out, s.cache)

	return out
}

// ForMonth returns the cached transactions dated in the given calendar month.
func (s *Store) ForMonth(year int, month time.Month) []Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Transaction

	for _, tx := range s.cache {
		if tx.Date.Year() == year && tx.Date.Month() == month {
			out = append(out, tx)
		}
	}

	return out
}

// Loading reports whether a request is in flight, for UI binding.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loading
}

// Err returns the failure of the most recent request, if any.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastErr
}

func (s *Store) begin() {
	s.mu.Lock()
	s.loading = true
	s.lastErr = nil
	s.mu.Unlock()
}

func (s *Store) finish(err error) {
	s.mu.Lock()
	s.loading = false
	s.lastErr = err
	s.mu.Unlock()
}

// persist re-serializes the whole collection. Inefficient but fine at
// personal-finance scale.
func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	raw, err := json.Marshal(s.cache)
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("encoding transactions: %w", err)
	}

	if err := s.kv.Set(ctx, storage.KeyTransactions, string(raw)); err != nil {
		return fmt.Errorf("persisting transactions: %w", err)
	}

	return nil
}
