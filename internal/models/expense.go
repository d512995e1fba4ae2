package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// PayerEveryone is the payer sentinel for expenses the whole group paid into.
const PayerEveryone = "Everyone"

// DefaultColor is used when an expense is created without a color.
const DefaultColor = "#ffffff"

// Expense represents a shared cost.
// In the shared pool AssignedPayments is empty; once assigned, the expense is
// copied under a new ID and carries one AssignedPayment per participant.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// Name is the human-readable label (e.g., "Dinner").
	Name string `json:"name"`

	// Amount is the expense total. Always positive.
	Amount float64 `json:"amount"`

	// Color is the card color as #rrggbb.
	Color string `json:"color"`

	// Payer is a person's name or PayerEveryone.
	Payer string `json:"payer"`

	// RemoveAfterAssignment drops the expense from the shared pool once it
	// has been assigned.
	RemoveAfterAssignment bool `json:"remove"`

	// AssignedPayments holds each participant's share. Only set on assigned expenses.
	AssignedPayments []AssignedPayment `json:"assignedPayments,omitempty"`

	// AssignedAt is when the expense was moved into the assigned pool.
	AssignedAt time.Time `json:"assignedAt,omitzero"`
}

// AssignedPayment represents one participant's share of an assigned expense.
type AssignedPayment struct {
	PersonID   string  `json:"id"`
	PersonName string  `json:"name"`
	Amount     float64 `json:"amount"`

	// Paid marks the share as settled. A paid share is always zero and locked.
	Paid bool `json:"paid"`

	// Locked excludes the share from automatic redistribution.
	Locked bool `json:"locked"`
}

// Clone returns a deep copy of the expense.
func (e Expense) Clone() Expense {
	out := e
	if e.AssignedPayments != nil {
		out.AssignedPayments = make([]AssignedPayment, len(e.AssignedPayments))
		copy(out.AssignedPayments, e.AssignedPayments)
	}
	return out
}

// Payment returns the index of the given person's payment, or -1.
func (e Expense) Payment(personID string) int {
	for i, p := range e.AssignedPayments {
		if p.PersonID == personID {
			return i
		}
	}
	return -1
}

// Validate checks an expense read from outside the process.
func (e Expense) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("expense id is required")
	}
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("expense %s: name is required", e.ID)
	}
	if math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0) || e.Amount <= 0 {
		return fmt.Errorf("expense %s: amount must be a positive number, got %v", e.ID, e.Amount)
	}
	if _, _, _, err := parseHex(e.Color); err != nil {
		return fmt.Errorf("expense %s: %w", e.ID, err)
	}
	if strings.TrimSpace(e.Payer) == "" {
		return fmt.Errorf("expense %s: payer is required", e.ID)
	}
	seen := make(map[string]bool, len(e.AssignedPayments))
	for _, p := range e.AssignedPayments {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("expense %s: %w", e.ID, err)
		}
		if seen[p.PersonID] {
			return fmt.Errorf("expense %s: duplicate payment for person %s", e.ID, p.PersonID)
		}
		seen[p.PersonID] = true
	}
	return nil
}

// Validate checks a single payment. Non-finite amounts are not rejected here;
// the calculator coerces them to zero.
func (p AssignedPayment) Validate() error {
	if p.PersonID == "" {
		return fmt.Errorf("payment person id is required")
	}
	return nil
}
