// Package calculator holds the pure split and balance computations.
// Nothing here touches storage or logs; callers pass values in and get new values back.
package calculator

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitway/internal/models"
)

// Recompute redistributes the unassigned remainder of an expense evenly over
// its unlocked payments.
//
// Algorithm:
//   - remainder = total - sum(locked amounts)
//   - each unlocked payment gets remainder / len(unlocked), rounded half away
//     from zero to cents
//   - with no unlocked payments nothing is redistributed
//
// The remainder is not clamped: when locked shares exceed the total the
// unlocked shares come out negative. NaN or infinite amounts become zero.
// The input slice is not modified and the output keeps its order.
func Recompute(total float64, payments []models.AssignedPayment) []models.AssignedPayment {
	out := make([]models.AssignedPayment, len(payments))
	copy(out, payments)

	unlocked := 0
	lockedTotal := decimal.Zero
	for i := range out {
		out[i].Amount = finite(out[i].Amount)
		if out[i].Locked {
			lockedTotal = lockedTotal.Add(decimal.NewFromFloat(out[i].Amount))
		} else {
			unlocked++
		}
	}

	if unlocked == 0 {
		return out
	}

	remainder := decimal.NewFromFloat(finite(total)).Sub(lockedTotal)
	share := cents(remainder.Div(decimal.NewFromInt(int64(unlocked))))
	for i := range out {
		if !out[i].Locked {
			out[i].Amount = finite(share)
		}
	}
	return out
}

// Remainder returns total minus the sum of locked shares. A negative value
// means the locked shares overcommit the expense.
func Remainder(total float64, payments []models.AssignedPayment) float64 {
	r := decimal.NewFromFloat(finite(total))
	for _, p := range payments {
		if p.Locked {
			r = r.Sub(decimal.NewFromFloat(finite(p.Amount)))
		}
	}
	f, _ := r.Float64()
	return f
}

// ApplyManualEdit sets a person's share from user input, locks it and
// recomputes the rest. Input that does not parse to a finite number counts as 0.
func ApplyManualEdit(total float64, payments []models.AssignedPayment, personID, newAmount string) []models.AssignedPayment {
	return ApplyManualAmount(total, payments, personID, ParseAmount(newAmount))
}

// ApplyManualAmount is ApplyManualEdit for an already numeric amount.
func ApplyManualAmount(total float64, payments []models.AssignedPayment, personID string, amount float64) []models.AssignedPayment {
	out := clonePayments(payments)
	for i := range out {
		if out[i].PersonID == personID {
			out[i].Amount = finite(amount)
			out[i].Locked = true
		}
	}
	return Recompute(total, out)
}

// SetPaid marks a share paid or unpaid. Paying zeroes and locks the share.
// Unpaying leaves Locked untouched; callers that want the share back in the
// even split must unlock it themselves.
func SetPaid(total float64, payments []models.AssignedPayment, personID string, paid bool) []models.AssignedPayment {
	out := clonePayments(payments)
	for i := range out {
		if out[i].PersonID != personID {
			continue
		}
		out[i].Paid = paid
		if paid {
			out[i].Amount = 0
			out[i].Locked = true
		}
	}
	return Recompute(total, out)
}

// Unlock returns a person's share to the even split.
func Unlock(total float64, payments []models.AssignedPayment, personID string) []models.AssignedPayment {
	out := clonePayments(payments)
	for i := range out {
		if out[i].PersonID == personID && !out[i].Paid {
			out[i].Locked = false
		}
	}
	return Recompute(total, out)
}

// AddParticipant appends an unlocked share for person. Adding someone who is
// already a participant only recomputes.
func AddParticipant(total float64, payments []models.AssignedPayment, person models.Person) []models.AssignedPayment {
	out := clonePayments(payments)
	if indexOf(out, person.ID) < 0 {
		out = append(out, models.AssignedPayment{
			PersonID:   person.ID,
			PersonName: person.Name,
		})
	}
	return Recompute(total, out)
}

// RemoveParticipant drops a person's share and redistributes the remainder
// over the unlocked shares that are left. Other lock states are kept.
func RemoveParticipant(total float64, payments []models.AssignedPayment, personID string) []models.AssignedPayment {
	out := make([]models.AssignedPayment, 0, len(payments))
	for _, p := range payments {
		if p.PersonID != personID {
			out = append(out, p)
		}
	}
	return Recompute(total, out)
}

// SplitEvenly builds the initial payments for an expense that was just
// assigned: one unlocked share per person, in the given order.
func SplitEvenly(total float64, people []models.Person) []models.AssignedPayment {
	payments := make([]models.AssignedPayment, len(people))
	for i, p := range people {
		payments[i] = models.AssignedPayment{PersonID: p.ID, PersonName: p.Name}
	}
	return Recompute(total, payments)
}

// ParseAmount parses user input as a money amount. Anything that is not a
// finite number yields 0.
func ParseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return finite(v)
}

// Round2 rounds to cents, half away from zero.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return cents(decimal.NewFromFloat(v))
}

func cents(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clonePayments(payments []models.AssignedPayment) []models.AssignedPayment {
	out := make([]models.AssignedPayment, len(payments))
	copy(out, payments)
	return out
}

func indexOf(payments []models.AssignedPayment, personID string) int {
	for i, p := range payments {
		if p.PersonID == personID {
			return i
		}
	}
	return -1
}
