package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var idPattern = regexp.MustCompile(`\(([0-9a-f-]{36})\)`)

// setupCLI points the CLI at a fresh database in a temp working directory.
func setupCLI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("SPLITWAY_DATA_PATH", filepath.Join(dir, "data", "splitway.db"))
	t.Setenv("SPLITWAY_LOG_LEVEL", "error")
	return dir
}

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	if err := run(context.Background(), args, &out); err != nil {
		t.Fatalf("splitway %v failed: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func lastID(t *testing.T, out string) string {
	t.Helper()
	m := idPattern.FindAllStringSubmatch(out, -1)
	require.NotEmpty(t, m, "no id in output %q", out)
	return m[len(m)-1][1]
}

func TestCLI_EndToEnd(t *testing.T) {
	dir := setupCLI(t)

	alice := lastID(t, runCLI(t, "add-person", "Alice"))
	runCLI(t, "add-person", "Bob")

	out := runCLI(t, "add-expense", "-name", "Cab", "-amount", "30", "-payer", "Alice", "-color", "#80d8ff")
	assert.Contains(t, out, "Cab $30.00")
	shared := lastID(t, out)

	out = runCLI(t, "assign", shared)
	assert.Contains(t, out, "paid by Alice")
	assert.Contains(t, out, "$15.00")
	expense := idPattern.FindStringSubmatch(out)[1]

	out = runCLI(t, "edit", expense, alice, "10")
	assert.Contains(t, out, "$20.00")
	assert.Contains(t, out, "locked")

	out = runCLI(t, "people")
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "$10.00")
	assert.Contains(t, out, "$20.00")

	assert.Equal(t, "Bob owes Alice $20.00\n", runCLI(t, "debts"))
	assert.Contains(t, runCLI(t, "history"), "Cab")
	assert.NotContains(t, runCLI(t, "shared"), shared, "assigned expense left the shared pool")

	csvPath := filepath.Join(dir, "out.csv")
	runCLI(t, "export", csvPath)
	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 3)

	xlsxPath := filepath.Join(dir, "out.xlsx")
	runCLI(t, "export", xlsxPath)
	info, err := os.Stat(xlsxPath)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}

func TestCLI_Errors(t *testing.T) {
	setupCLI(t)
	var out bytes.Buffer
	ctx := context.Background()

	assert.ErrorIs(t, run(ctx, nil, &out), errUsage)
	assert.ErrorIs(t, run(ctx, []string{"frobnicate"}, &out), errUsage)
	assert.ErrorIs(t, run(ctx, []string{"edit", "only-one"}, &out), errUsage)
	assert.Error(t, run(ctx, []string{"remove-person", "nonexistent-id"}, &out))
	assert.Error(t, run(ctx, []string{"export", "out.pdf"}, &out))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   int
		output string
	}{
		{name: "success", err: nil, code: 0, output: ""},
		{name: "bare usage", err: errUsage, code: 2, output: ""},
		{name: "usage with detail", err: usagef("edit: expected 3 argument(s), got 1"), code: 2, output: "splitway: edit: expected 3 argument(s), got 1\n"},
		{name: "wrapped usage", err: fmt.Errorf("parse: %w", usagef("unknown command %q", "x")), code: 2, output: "splitway: unknown command \"x\"\n"},
		{name: "failure", err: errors.New("disk full"), code: 1, output: "splitway: disk full\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Equal(t, tt.code, exitCode(tt.err, &buf))
			assert.Equal(t, tt.output, buf.String())
		})
	}
}

func TestCLI_MetricsTextfile(t *testing.T) {
	dir := setupCLI(t)
	path := filepath.Join(dir, "splitway.prom")
	t.Setenv("SPLITWAY_METRICS_TEXTFILE", path)

	runCLI(t, "add-person", "Alice")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `splitway_operations_total{operation="add_person",result="ok"} 1`)
	assert.Contains(t, string(raw), "splitway_people 1")
}
