// Package models defines the core domain records for Splitway.
//
// # Records
//
//   - Person: a member of the group. Balance is derived from assigned expenses.
//   - Expense: a shared cost. Lives in the shared pool until it is assigned,
//     at which point a copy with a fresh ID carries the AssignedPayments.
//   - AssignedPayment: one participant's share of an assigned expense.
//
// # Design Principles
//
// 1. **Plain values**: records are copied in and out of the calculator and the
// ledger; nothing holds pointers into another record.
// 2. **IDs over pointers**: payments reference people by PersonID and keep a
// copy of the name for display.
// 3. **Validate at the boundary**: data read back from storage goes through
// Validate before it reaches the calculator.
package models
