package export

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mmynk/splitway/internal/calculator"
	"github.com/mmynk/splitway/internal/models"
)

func sampleReport() Report {
	rent := models.Expense{
		ID: "e1", Name: "Rent", Amount: 90, Color: "#ffe57f", Payer: "Alice",
		AssignedAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		AssignedPayments: []models.AssignedPayment{
			{PersonID: "a", PersonName: "Alice", Amount: 30},
			{PersonID: "b", PersonName: "Bob", Amount: 60, Locked: true},
			{PersonID: "c", PersonName: "Carol", Amount: 0, Paid: true, Locked: true},
		},
	}
	return Report{
		People: []models.Person{
			{ID: "a", Name: "Alice", Balance: 30},
			{ID: "b", Name: "Bob", Balance: 60},
			{ID: "c", Name: "Carol", Balance: 0},
		},
		Assigned: []models.Expense{rent},
		History:  []models.Expense{rent, {ID: "e0", Name: "Old", Amount: 5, Color: "not-a-color", Payer: "Everyone"}},
		Debts:    []calculator.DebtEdge{{From: "Bob", To: "Alice", Amount: 60}},
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetBalances, sheetAssigned, sheetHistory}, f.GetSheetList())

	balances, err := f.GetRows(sheetBalances)
	require.NoError(t, err)
	require.Len(t, balances, 4)
	assert.Equal(t, "Person", balances[0][0])
	assert.Equal(t, "Alice", balances[1][0])
	assert.Equal(t, "Bob", balances[1][3])
	assert.Equal(t, "Alice", balances[1][4])
	width, err := f.GetColWidth(sheetBalances, "E")
	require.NoError(t, err)
	assert.Equal(t, 20.0, width)

	assigned, err := f.GetRows(sheetAssigned)
	require.NoError(t, err)
	require.Len(t, assigned, 4)
	assert.Equal(t, "Rent", assigned[2][0])
	assert.Equal(t, "Bob", assigned[2][3])
	share, err := strconv.ParseFloat(assigned[2][4], 64)
	require.NoError(t, err)
	assert.Equal(t, 60.0, share)
	assert.Equal(t, "yes", assigned[3][5])

	styleID, err := f.GetCellStyle(sheetAssigned, "A2")
	require.NoError(t, err)
	assert.NotZero(t, styleID, "expense cell is colored")

	history, err := f.GetRows(sheetHistory)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "2026-10-01 12:00:00", history[1][3])
	assert.Equal(t, "Old", history[2][0])
}

func TestSetWidths(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, setWidths(f, "Sheet1", [2]string{"A", "B"}))
	width, err := f.GetColWidth("Sheet1", "B")
	require.NoError(t, err)
	assert.Equal(t, 20.0, width)

	assert.Error(t, setWidths(f, "Missing", [2]string{"A", "A"}))
	assert.Error(t, setWidths(f, "Sheet1", [2]string{"A", "1"}))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleReport()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "expense_id", records[0][0])
	assert.Equal(t, []string{"e1", "Rent", "Alice", "90.00", "c", "Carol", "0.00", "true", "true"}, records[3])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Report{}))
	assert.Equal(t, "expense_id,expense,payer,total,person_id,person,share,paid,locked\n", buf.String())
}
