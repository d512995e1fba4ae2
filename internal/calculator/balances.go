package calculator

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitway/internal/models"
)

// DebtEdge represents a debt from one person to another.
type DebtEdge struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount float64
}

// CalculateBalances returns people with Balance set to the sum of their shares
// across all assigned expenses. Order follows the input; the input is not modified.
func CalculateBalances(people []models.Person, expenses []models.Expense) []models.Person {
	totals := make(map[string]decimal.Decimal, len(people))
	for _, e := range expenses {
		for _, p := range e.AssignedPayments {
			totals[p.PersonID] = totals[p.PersonID].Add(decimal.NewFromFloat(finite(p.Amount)))
		}
	}

	out := make([]models.Person, len(people))
	for i, p := range people {
		p.Balance = cents(totals[p.ID])
		out[i] = p
	}
	return out
}

// CalculateDebts works out who should pay whom.
//
// Algorithm:
//   - only expenses paid by a named person count; "Everyone" expenses are pooled
//   - every unpaid share of a participant other than the payer is owed to the payer
//   - net balance = owed to you - you owe
//   - debtors and creditors are matched greedily, largest first
//
// Payers that are not group members (e.g. renamed or removed) still receive edges.
func CalculateDebts(expenses []models.Expense) []DebtEdge {
	net := make(map[string]decimal.Decimal)

	for _, e := range expenses {
		if e.Payer == "" || e.Payer == models.PayerEveryone {
			continue
		}
		for _, p := range e.AssignedPayments {
			if p.Paid || p.PersonName == e.Payer {
				continue
			}
			amount := decimal.NewFromFloat(finite(p.Amount))
			net[p.PersonName] = net[p.PersonName].Sub(amount)
			net[e.Payer] = net[e.Payer].Add(amount)
		}
	}

	type party struct {
		name   string
		amount decimal.Decimal
	}
	var debtors, creditors []party
	for name, bal := range net {
		switch bal.Sign() {
		case -1:
			debtors = append(debtors, party{name, bal.Neg()})
		case 1:
			creditors = append(creditors, party{name, bal})
		}
	}
	byAmount := func(a, b party) int {
		if c := b.amount.Cmp(a.amount); c != 0 {
			return c
		}
		return cmp.Compare(a.name, b.name)
	}
	slices.SortFunc(debtors, byAmount)
	slices.SortFunc(creditors, byAmount)

	cent := decimal.New(1, -2)
	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d, c := &debtors[i], &creditors[j]

		amount := decimal.Min(d.amount, c.amount)
		if amount.GreaterThanOrEqual(cent) { // Avoid floating point noise
			edges = append(edges, DebtEdge{From: d.name, To: c.name, Amount: cents(amount)})
		}

		d.amount = d.amount.Sub(amount)
		c.amount = c.amount.Sub(amount)

		// Move to next debtor/creditor if fully settled
		if d.amount.LessThan(cent) {
			i++
		}
		if c.amount.LessThan(cent) {
			j++
		}
	}

	return edges
}
