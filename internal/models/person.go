package models

import (
	"fmt"
	"strings"
)

// Person represents one member of the group.
type Person struct {
	// ID is the unique identifier for the person (UUID format).
	ID string `json:"id"`

	// Name is the display name. Payers are referenced by name.
	Name string `json:"name"`

	// Balance is the total this person owes across all assigned expenses.
	// It is derived by calculator.CalculateBalances and never edited directly.
	Balance float64 `json:"balance"`
}

// Validate checks the fields that must be present on a stored person.
func (p Person) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("person id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("person %s: name is required", p.ID)
	}
	return nil
}
