// Package export writes the ledger out as spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mmynk/splitway/internal/calculator"
	"github.com/mmynk/splitway/internal/models"
)

const (
	sheetBalances = "Balances"
	sheetAssigned = "Assigned"
	sheetHistory  = "History"
)

// Report is everything an export contains.
type Report struct {
	People   []models.Person
	Assigned []models.Expense
	History  []models.Expense
	Debts    []calculator.DebtEdge
}

// WriteXLSX writes a workbook with Balances, Assigned and History sheets.
// Expense name cells take the expense's color with a darker border.
func WriteXLSX(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetBalances); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{sheetAssigned, sheetHistory} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	styles := newColorStyles(f)

	if err := writeBalances(f, r); err != nil {
		return err
	}
	if err := writeAssigned(f, styles, r.Assigned); err != nil {
		return err
	}
	if err := writeHistory(f, styles, r.History); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeBalances(f *excelize.File, r Report) error {
	rows := [][]any{{"Person", "Owes", "", "From", "To", "Amount"}}
	for i := 0; i < max(len(r.People), len(r.Debts)); i++ {
		row := make([]any, 6)
		if i < len(r.People) {
			row[0], row[1] = r.People[i].Name, r.People[i].Balance
		}
		if i < len(r.Debts) {
			d := r.Debts[i]
			row[3], row[4], row[5] = d.From, d.To, d.Amount
		}
		rows = append(rows, row)
	}
	if err := setRows(f, sheetBalances, rows); err != nil {
		return err
	}
	return setWidths(f, sheetBalances, [2]string{"A", "A"}, [2]string{"D", "E"})
}

func writeAssigned(f *excelize.File, styles *colorStyles, expenses []models.Expense) error {
	rows := [][]any{{"Expense", "Payer", "Total", "Person", "Share", "Paid", "Locked"}}
	var colors []string
	for _, e := range expenses {
		for _, p := range e.AssignedPayments {
			rows = append(rows, []any{e.Name, e.Payer, e.Amount, p.PersonName, p.Amount, yesNo(p.Paid), yesNo(p.Locked)})
			colors = append(colors, e.Color)
		}
	}
	if err := setRows(f, sheetAssigned, rows); err != nil {
		return err
	}
	for i, color := range colors {
		if err := styles.apply(sheetAssigned, i+2, color); err != nil {
			return err
		}
	}
	return setWidths(f, sheetAssigned, [2]string{"A", "B"}, [2]string{"D", "D"})
}

func writeHistory(f *excelize.File, styles *colorStyles, history []models.Expense) error {
	rows := [][]any{{"Expense", "Payer", "Amount", "Assigned At"}}
	for _, e := range history {
		assignedAt := ""
		if !e.AssignedAt.IsZero() {
			assignedAt = e.AssignedAt.Format(time.DateTime)
		}
		rows = append(rows, []any{e.Name, e.Payer, e.Amount, assignedAt})
	}
	if err := setRows(f, sheetHistory, rows); err != nil {
		return err
	}
	for i, e := range history {
		if err := styles.apply(sheetHistory, i+2, e.Color); err != nil {
			return err
		}
	}
	return setWidths(f, sheetHistory, [2]string{"A", "B"}, [2]string{"D", "D"})
}

// setWidths widens each [start, end] column range to fit names.
func setWidths(f *excelize.File, sheet string, cols ...[2]string) error {
	for _, c := range cols {
		if err := f.SetColWidth(sheet, c[0], c[1], 20); err != nil {
			return fmt.Errorf("set %s column width %s:%s: %w", sheet, c[0], c[1], err)
		}
	}
	return nil
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// colorStyles caches one fill style per expense color.
type colorStyles struct {
	f     *excelize.File
	cache map[string]int
}

func newColorStyles(f *excelize.File) *colorStyles {
	return &colorStyles{f: f, cache: make(map[string]int)}
}

func (c *colorStyles) apply(sheet string, row int, color string) error {
	if !models.ValidColor(color) {
		return nil
	}
	id, ok := c.cache[color]
	if !ok {
		border := models.ShadeColor(color, -40)
		var err error
		id, err = c.f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{models.ShadeColor(color, 0)}, Pattern: 1},
			Border: []excelize.Border{
				{Type: "left", Color: border, Style: 1},
				{Type: "top", Color: border, Style: 1},
				{Type: "right", Color: border, Style: 1},
				{Type: "bottom", Color: border, Style: 1},
			},
		})
		if err != nil {
			return fmt.Errorf("create style for %s: %w", color, err)
		}
		c.cache[color] = id
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return c.f.SetCellStyle(sheet, cell, cell, id)
}

// WriteCSV writes one row per assigned share.
func WriteCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"expense_id", "expense", "payer", "total", "person_id", "person", "share", "paid", "locked"}); err != nil {
		return err
	}
	for _, e := range r.Assigned {
		for _, p := range e.AssignedPayments {
			err := cw.Write([]string{
				e.ID,
				e.Name,
				e.Payer,
				formatAmount(e.Amount),
				p.PersonID,
				p.PersonName,
				formatAmount(p.Amount),
				strconv.FormatBool(p.Paid),
				strconv.FormatBool(p.Locked),
			})
			if err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
