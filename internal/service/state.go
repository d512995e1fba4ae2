package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mmynk/splitway/internal/calculator"
	"github.com/mmynk/splitway/internal/models"
	"github.com/mmynk/splitway/internal/storage"
)

// Storage keys. They match the local storage keys of the browser version so
// exported documents stay interchangeable.
const (
	keyPeople   = "people"
	keyAssigned = "expenses"
	keyShared   = "sharedExpenses"
	keyHistory  = "lifetimeExpenses"
)

// state is everything the ledger owns. Mutations work on a clone and replace
// the live state only after it has been saved.
type state struct {
	People   []models.Person
	Shared   []models.Expense
	Assigned []models.Expense
	History  []models.Expense
}

func (s state) clone() state {
	return state{
		People:   append([]models.Person(nil), s.People...),
		Shared:   cloneExpenses(s.Shared),
		Assigned: cloneExpenses(s.Assigned),
		History:  cloneExpenses(s.History),
	}
}

func cloneExpenses(in []models.Expense) []models.Expense {
	if in == nil {
		return nil
	}
	out := make([]models.Expense, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}

// defaultSharedExpenses is the shared pool a new group starts with.
func defaultSharedExpenses() []models.Expense {
	seed := []struct {
		name   string
		amount float64
		color  string
	}{
		{"Dinner", 50, "#ff8a80"},
		{"Groceries", 100, "#b9f6ca"},
		{"Rent", 500, "#ffe57f"},
		{"Utilities", 150, "#80d8ff"},
	}
	out := make([]models.Expense, len(seed))
	for i, s := range seed {
		out[i] = models.Expense{
			ID:     uuid.NewString(),
			Name:   s.name,
			Amount: s.amount,
			Color:  s.color,
			Payer:  models.PayerEveryone,
		}
	}
	return out
}

type validator interface {
	Validate() error
}

// loadRecords reads a JSON array stored under key. Records that fail to decode
// or validate are dropped with a warning. found is false when the key is absent.
func loadRecords[T validator](ctx context.Context, store storage.Store, key string) (records []T, found bool, err error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load %s: %w", key, err)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, true, fmt.Errorf("failed to decode %s: %w", key, err)
	}

	records = make([]T, 0, len(items))
	for i, item := range items {
		var rec T
		if err := json.Unmarshal(item, &rec); err != nil {
			slog.Warn("Dropping undecodable record", "key", key, "index", i, "error", err)
			continue
		}
		if err := rec.Validate(); err != nil {
			slog.Warn("Dropping invalid record", "key", key, "index", i, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, true, nil
}

// readState loads all keys and repairs what the invariants require:
// paid shares are zero and locked, shares of unknown people are stripped,
// splits and balances are recomputed.
func readState(ctx context.Context, store storage.Store) (state, error) {
	var s state
	var err error

	if s.People, _, err = loadRecords[models.Person](ctx, store, keyPeople); err != nil {
		return state{}, err
	}
	if s.Assigned, _, err = loadRecords[models.Expense](ctx, store, keyAssigned); err != nil {
		return state{}, err
	}
	if s.History, _, err = loadRecords[models.Expense](ctx, store, keyHistory); err != nil {
		return state{}, err
	}
	var found bool
	if s.Shared, found, err = loadRecords[models.Expense](ctx, store, keyShared); err != nil {
		return state{}, err
	}
	if !found {
		s.Shared = defaultSharedExpenses()
	}

	known := make(map[string]bool, len(s.People))
	for _, p := range s.People {
		known[p.ID] = true
	}
	for i := range s.Assigned {
		e := &s.Assigned[i]
		payments := make([]models.AssignedPayment, 0, len(e.AssignedPayments))
		for _, p := range e.AssignedPayments {
			if !known[p.PersonID] {
				slog.Warn("Stripping share of unknown person", "expense_id", e.ID, "person_id", p.PersonID)
				continue
			}
			if p.Paid {
				p.Amount = 0
				p.Locked = true
			}
			payments = append(payments, p)
		}
		e.AssignedPayments = calculator.Recompute(e.Amount, payments)
	}

	s.People = calculator.CalculateBalances(s.People, s.Assigned)
	return s, nil
}

// writeState saves every key in one batch.
func writeState(ctx context.Context, store storage.Store, s state) error {
	docs := map[string]any{
		keyPeople:   nonNil(s.People),
		keyShared:   nonNil(s.Shared),
		keyAssigned: nonNil(s.Assigned),
		keyHistory:  nonNil(s.History),
	}

	entries := make(map[string][]byte, len(docs))
	for key, doc := range docs {
		raw, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		entries[key] = raw
	}

	if err := store.PutMany(ctx, entries); err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}
	return nil
}

// nonNil keeps empty collections as [] rather than null in storage.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
