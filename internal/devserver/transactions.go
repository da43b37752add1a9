package devserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

var categoryLabels = map[string]string{
	"FOOD":     "Food",
	"PURCHASE": "Purchase",
	"FIXED":    "Fixed Cost",
	"TRAVEL":   "Travel",
}

type txRecord struct {
	ID              int64           `json:"id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Category        string          `json:"category"`
	CategoryDisplay string          `json:"category_display"`
	Description     string          `json:"description"`
	Date            time.Time       `json:"date"`
}

type txDraft struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	u := requestUser(r)

	s.mu.Lock()
	records := s.txs[u.Username]
	out := make([]*txRecord, len(records))
	copy(out, records)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	u := requestUser(r)

	var draft txDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}

	if fields := validateDraft(draft); len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, fields)
		return
	}

	s.mu.Lock()
	s.nextTxID++
	record := &txRecord{
		ID:              s.nextTxID,
		Amount:          draft.Amount,
		Currency:        draft.Currency,
		Category:        draft.Category,
		CategoryDisplay: categoryLabels[draft.Category],
		Description:     draft.Description,
		Date:            draft.Date,
	}
	s.txs[u.Username] = append(s.txs[u.Username], record)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request) {
	u := requestUser(r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid id"})
		return
	}

	var patch struct {
		Amount      *decimal.Decimal `json:"amount"`
		Currency    *string          `json:"currency"`
		Category    *string          `json:"category"`
		Description *string          `json:"description"`
		Date        *time.Time       `json:"date"`
	}

	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}

	if patch.Category != nil {
		if _, ok := categoryLabels[*patch.Category]; !ok {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"category": {"Invalid category."}})
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.findTx(u.Username, id)
	if record == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}

	if patch.Amount != nil {
		record.Amount = *patch.Amount
	}

	if patch.Currency != nil {
		record.Currency = *patch.Currency
	}

	if patch.Category != nil {
		record.Category = *patch.Category
		record.CategoryDisplay = categoryLabels[*patch.Category]
	}

	if patch.Description != nil {
		record.Description = *patch.Description
	}

	if patch.Date != nil {
		record.Date = *patch.Date
	}

	writeJSON(w, http.StatusOK, record)
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	u := requestUser(r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid id"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.txs[u.Username]
	for i, record := range records {
		if record.ID == id {
			s.txs[u.Username] = append(records[:i], records[i+1:]...)
			w.WriteHeader(http.StatusNoContent)

			return
		}
	}

	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
}

func (s *Server) findTx(username string, id int64) *txRecord {
	for _, record := range s.txs[username] {
		if record.ID == id {
			return record
		}
	}

	return nil
}

func validateDraft(draft txDraft) map[string][]string {
	fields := map[string][]string{}

	if draft.Amount.IsZero() {
		fields["amount"] = []string{"A non-zero amount is required."}
	}

	if draft.Description == "" {
		fields["description"] = []string{"This field may not be blank."}
	}

	if draft.Currency == "" {
		fields["currency"] = []string{"This field may not be blank."}
	}

	if _, ok := categoryLabels[draft.Category]; !ok {
		fields["category"] = []string{"Invalid category."}
	}

	return fields
}
