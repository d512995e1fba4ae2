// Package service holds the Ledger, the state container around the split
// calculator. It loads the group from a storage.Store at startup and saves it
// after every successful mutation.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/splitway/internal/calculator"
	"github.com/mmynk/splitway/internal/metrics"
	"github.com/mmynk/splitway/internal/models"
	"github.com/mmynk/splitway/internal/storage"
)

// ExpenseInput is the add-expense form.
type recompute struct {
	expenseID string
	name      string
	amount    float64
	remainder float64
}

type ExpenseInput struct {
	Name                  string
	Amount                string
	Color                 string
	Payer                 string
	RemoveAfterAssignment bool
}

// Ledger owns the group's people, the shared and assigned expense pools and
// the history of every assignment. Safe for concurrent use; mutations are
// serialized.
type Ledger struct {
	store   storage.Store
	metrics *metrics.Metrics
	now     func() time.Time

	// recomputes made by the running update; observed only once it commits.
	recomputes []recompute

	mu    sync.Mutex
	state state
}

// NewLedger creates a Ledger backed by store. Call Load before use.
// A nil m records metrics on a private registry.
func NewLedger(store storage.Store, m *metrics.Metrics) *Ledger {
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}
	return &Ledger{store: store, metrics: m, now: time.Now}
}

// Load replaces the in-memory state with what is stored.
func (l *Ledger) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, err := readState(ctx, l.store)
	if err != nil {
		slog.Error("Load failed", "error", err)
		return err
	}
	l.state = s
	l.updateGauges()

	slog.Info("Ledger loaded",
		"people_count", len(s.People),
		"shared_count", len(s.Shared),
		"assigned_count", len(s.Assigned),
		"history_count", len(s.History),
	)
	return nil
}

// update runs fn on a copy of the state, recomputes balances, saves, and only
// then makes the copy live.
func (l *Ledger) update(ctx context.Context, op string, fn func(s *state) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()
	draft := l.state.clone()
	l.recomputes = l.recomputes[:0]

	err := fn(&draft)
	if err == nil {
		draft.People = calculator.CalculateBalances(draft.People, draft.Assigned)
		err = writeState(ctx, l.store, draft)
	}
	l.metrics.ObserveOperation(op, err)

	duration := time.Since(start).Milliseconds()
	if err != nil {
		if IsInputError(err) {
			slog.Warn("Ledger operation rejected", "operation", op, "error", err, "duration_ms", duration)
		} else {
			slog.Error("Ledger operation failed", "operation", op, "error", err, "duration_ms", duration)
		}
		return err
	}

	l.state = draft
	l.updateGauges()
	l.observeRecomputes()
	slog.Info("Ledger operation ok", "operation", op, "duration_ms", duration)
	return nil
}

func (l *Ledger) updateGauges() {
	l.metrics.People.Set(float64(len(l.state.People)))
	l.metrics.SharedExpenses.Set(float64(len(l.state.Shared)))
	l.metrics.AssignedExpenses.Set(float64(len(l.state.Assigned)))
	total := 0.0
	for _, e := range l.state.Assigned {
		total += e.Amount
	}
	l.metrics.AssignedTotalAmount.Set(calculator.Round2(total))
}

// setPayments stores recomputed payments on e and queues the recompute for
// observation after the update commits.
func (l *Ledger) setPayments(e *models.Expense, payments []models.AssignedPayment) {
	e.AssignedPayments = payments
	l.recomputes = append(l.recomputes, recompute{
		expenseID: e.ID,
		name:      e.Name,
		amount:    e.Amount,
		remainder: calculator.Remainder(e.Amount, payments),
	})
}

// observeRecomputes records committed recomputes and surfaces overcommitted splits.
func (l *Ledger) observeRecomputes() {
	for _, r := range l.recomputes {
		l.metrics.ObserveRecompute(r.remainder)
		if r.remainder < 0 {
			slog.Warn("Locked shares exceed expense total",
				"expense_id", r.expenseID,
				"expense", r.name,
				"amount", r.amount,
				"remainder", r.remainder,
			)
		}
	}
	l.recomputes = l.recomputes[:0]
}

// AddPerson adds a person to the group. The name is trimmed and must be unique.
// New people are not added to expenses that are already assigned.
func (l *Ledger) AddPerson(ctx context.Context, name string) (models.Person, error) {
	slog.Info("AddPerson request received", "name", name)

	name = strings.TrimSpace(name)
	var person models.Person
	err := l.update(ctx, "add_person", func(s *state) error {
		if name == "" {
			return ErrEmptyName
		}
		if findPersonByName(s.People, name) >= 0 {
			return fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
		person = models.Person{ID: uuid.NewString(), Name: name}
		s.People = append(s.People, person)
		return nil
	})
	if err != nil {
		return models.Person{}, err
	}

	slog.Info("Person added", "person_id", person.ID)
	return person, nil
}

// RemovePerson removes a person and strips their share from every assigned
// expense, redistributing each remainder over the unlocked shares left.
// Expenses the person paid for fall back to PayerEveryone; the history is
// left untouched.
func (l *Ledger) RemovePerson(ctx context.Context, personID string) error {
	slog.Info("RemovePerson request received", "person_id", personID)

	return l.update(ctx, "remove_person", func(s *state) error {
		idx := findPerson(s.People, personID)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrPersonNotFound, personID)
		}
		name := s.People[idx].Name
		s.People = slices.Delete(s.People, idx, idx+1)

		orphaned := resetPayer(s.Shared, name) + resetPayer(s.Assigned, name)
		if orphaned > 0 {
			slog.Info("Payer reset to everyone", "payer", name, "expenses_count", orphaned)
		}

		for i := range s.Assigned {
			e := &s.Assigned[i]
			if e.Payment(personID) < 0 {
				continue
			}
			l.setPayments(e, calculator.RemoveParticipant(e.Amount, e.AssignedPayments, personID))
		}
		return nil
	})
}

// AddSharedExpense validates the add-expense form and puts the expense in the
// shared pool.
func (l *Ledger) AddSharedExpense(ctx context.Context, in ExpenseInput) (models.Expense, error) {
	slog.Info("AddSharedExpense request received",
		"name", in.Name,
		"amount", in.Amount,
		"payer", in.Payer,
	)

	var expense models.Expense
	err := l.update(ctx, "add_shared_expense", func(s *state) error {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return ErrEmptyName
		}
		amount := calculator.ParseAmount(in.Amount)
		if amount <= 0 {
			return fmt.Errorf("%w: %q", ErrInvalidAmount, in.Amount)
		}
		if len(s.People) == 0 {
			return ErrNoPeople
		}
		payer := strings.TrimSpace(in.Payer)
		if payer == "" {
			return ErrEmptyPayer
		}
		if payer != models.PayerEveryone && findPersonByName(s.People, payer) < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownPayer, payer)
		}
		color := in.Color
		if color == "" {
			color = models.DefaultColor
		}
		if !models.ValidColor(color) {
			return fmt.Errorf("%w: %q", ErrInvalidColor, color)
		}

		expense = models.Expense{
			ID:                    uuid.NewString(),
			Name:                  name,
			Amount:                amount,
			Color:                 color,
			Payer:                 payer,
			RemoveAfterAssignment: in.RemoveAfterAssignment,
		}
		s.Shared = append(s.Shared, expense)
		return nil
	})
	if err != nil {
		return models.Expense{}, err
	}

	slog.Info("Shared expense added", "expense_id", expense.ID)
	return expense, nil
}

// AssignExpense copies a shared expense into the assigned pool under a new ID,
// split evenly over everyone in the group, and records it in the history.
// The shared expense is dropped when it was created with RemoveAfterAssignment.
func (l *Ledger) AssignExpense(ctx context.Context, sharedID string) (models.Expense, error) {
	slog.Info("AssignExpense request received", "shared_id", sharedID)

	var assigned models.Expense
	err := l.update(ctx, "assign_expense", func(s *state) error {
		idx := findExpense(s.Shared, sharedID)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrExpenseNotFound, sharedID)
		}
		shared := s.Shared[idx]

		assigned = shared.Clone()
		assigned.ID = uuid.NewString()
		assigned.AssignedAt = l.now().UTC()
		l.setPayments(&assigned, calculator.SplitEvenly(assigned.Amount, s.People))

		s.Assigned = append(s.Assigned, assigned)
		s.History = append(s.History, assigned.Clone())
		if shared.RemoveAfterAssignment {
			s.Shared = slices.Delete(s.Shared, idx, idx+1)
		}
		return nil
	})
	if err != nil {
		return models.Expense{}, err
	}

	slog.Info("Expense assigned",
		"shared_id", sharedID,
		"expense_id", assigned.ID,
		"participants_count", len(assigned.AssignedPayments),
	)
	return assigned.Clone(), nil
}

// RemoveAssignedExpense drops an expense from the assigned pool. The history keeps it.
func (l *Ledger) RemoveAssignedExpense(ctx context.Context, expenseID string) error {
	slog.Info("RemoveAssignedExpense request received", "expense_id", expenseID)

	return l.update(ctx, "remove_assigned_expense", func(s *state) error {
		idx := findExpense(s.Assigned, expenseID)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrExpenseNotFound, expenseID)
		}
		s.Assigned = slices.Delete(s.Assigned, idx, idx+1)
		return nil
	})
}

// EditShare sets a participant's share from user input and locks it.
// Input that is not a number counts as 0.
func (l *Ledger) EditShare(ctx context.Context, expenseID, personID, amount string) (models.Expense, error) {
	slog.Info("EditShare request received", "expense_id", expenseID, "person_id", personID, "amount", amount)

	return l.updateExpense(ctx, "edit_share", expenseID, personID, func(e *models.Expense) {
		l.setPayments(e, calculator.ApplyManualEdit(e.Amount, e.AssignedPayments, personID, amount))
	})
}

// SetPaid marks a participant's share paid (zero and locked) or unpaid.
// Unpaying keeps the share locked at zero; use UnlockShare to return it to
// the even split.
func (l *Ledger) SetPaid(ctx context.Context, expenseID, personID string, paid bool) (models.Expense, error) {
	slog.Info("SetPaid request received", "expense_id", expenseID, "person_id", personID, "paid", paid)

	return l.updateExpense(ctx, "set_paid", expenseID, personID, func(e *models.Expense) {
		l.setPayments(e, calculator.SetPaid(e.Amount, e.AssignedPayments, personID, paid))
	})
}

// UnlockShare puts an unpaid share back into the even split.
func (l *Ledger) UnlockShare(ctx context.Context, expenseID, personID string) (models.Expense, error) {
	slog.Info("UnlockShare request received", "expense_id", expenseID, "person_id", personID)

	return l.updateExpense(ctx, "unlock_share", expenseID, personID, func(e *models.Expense) {
		l.setPayments(e, calculator.Unlock(e.Amount, e.AssignedPayments, personID))
	})
}

// RemoveParticipant drops a participant from one expense.
func (l *Ledger) RemoveParticipant(ctx context.Context, expenseID, personID string) (models.Expense, error) {
	slog.Info("RemoveParticipant request received", "expense_id", expenseID, "person_id", personID)

	return l.updateExpense(ctx, "remove_participant", expenseID, personID, func(e *models.Expense) {
		l.setPayments(e, calculator.RemoveParticipant(e.Amount, e.AssignedPayments, personID))
	})
}

// AddParticipant adds a group member to one expense. Adding an existing
// participant changes nothing.
func (l *Ledger) AddParticipant(ctx context.Context, expenseID, personID string) (models.Expense, error) {
	slog.Info("AddParticipant request received", "expense_id", expenseID, "person_id", personID)

	var out models.Expense
	err := l.update(ctx, "add_participant", func(s *state) error {
		idx := findExpense(s.Assigned, expenseID)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrExpenseNotFound, expenseID)
		}
		p := findPerson(s.People, personID)
		if p < 0 {
			return fmt.Errorf("%w: %s", ErrPersonNotFound, personID)
		}
		e := &s.Assigned[idx]
		l.setPayments(e, calculator.AddParticipant(e.Amount, e.AssignedPayments, s.People[p]))
		out = e.Clone()
		return nil
	})
	if err != nil {
		return models.Expense{}, err
	}
	return out, nil
}

// updateExpense applies fn to an assigned expense personID participates in.
func (l *Ledger) updateExpense(ctx context.Context, op, expenseID, personID string, fn func(e *models.Expense)) (models.Expense, error) {
	var out models.Expense
	err := l.update(ctx, op, func(s *state) error {
		idx := findExpense(s.Assigned, expenseID)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrExpenseNotFound, expenseID)
		}
		e := &s.Assigned[idx]
		if e.Payment(personID) < 0 {
			return fmt.Errorf("%w: %s", ErrParticipantNotFound, personID)
		}
		fn(e)
		out = e.Clone()
		return nil
	})
	if err != nil {
		return models.Expense{}, err
	}
	return out, nil
}

// People returns the group with current balances.
func (l *Ledger) People() []models.Person {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.state.People)
}

// SharedExpenses returns the shared pool.
func (l *Ledger) SharedExpenses() []models.Expense {
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneExpenses(l.state.Shared)
}

// AssignedExpenses returns the assigned pool.
func (l *Ledger) AssignedExpenses() []models.Expense {
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneExpenses(l.state.Assigned)
}

// History returns the most recent limit assignments, oldest first.
// limit <= 0 returns all of them.
func (l *Ledger) History(limit int) []models.Expense {
	l.mu.Lock()
	defer l.mu.Unlock()
	h := l.state.History
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	return cloneExpenses(h)
}

// Debts returns who should pay whom for the assigned pool.
func (l *Ledger) Debts() []calculator.DebtEdge {
	l.mu.Lock()
	defer l.mu.Unlock()
	return calculator.CalculateDebts(l.state.Assigned)
}

// resetPayer points every expense paid by name at PayerEveryone and reports
// how many changed.
func resetPayer(expenses []models.Expense, name string) int {
	n := 0
	for i := range expenses {
		if expenses[i].Payer == name {
			expenses[i].Payer = models.PayerEveryone
			n++
		}
	}
	return n
}

func findPerson(people []models.Person, id string) int {
	return slices.IndexFunc(people, func(p models.Person) bool { return p.ID == id })
}

func findPersonByName(people []models.Person, name string) int {
	return slices.IndexFunc(people, func(p models.Person) bool { return p.Name == name })
}

func findExpense(expenses []models.Expense, id string) int {
	return slices.IndexFunc(expenses, func(e models.Expense) bool { return e.ID == id })
}
