package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/mmynk/splitway/internal/config"
	"github.com/mmynk/splitway/internal/export"
	"github.com/mmynk/splitway/internal/models"
	"github.com/mmynk/splitway/internal/service"
	"github.com/mmynk/splitway/pkg/money"
)

// usageError is a command-line mistake. The message, when set, says what was wrong.
type usageError string

func (e usageError) Error() string {
	if e == "" {
		return "usage"
	}
	return string(e)
}

// Is makes every usageError match errUsage.
func (usageError) Is(target error) bool {
	_, ok := target.(usageError)
	return ok
}

var errUsage error = usageError("")

func usagef(format string, args ...any) error {
	return usageError(fmt.Sprintf(format, args...))
}

const usageText = `Usage: splitway [-config FILE] <command> [args]

People:
  people                                 list people and what they owe
  add-person NAME                        add someone to the group
  remove-person PERSON_ID                remove someone and their shares

Shared pool:
  shared                                 list expenses waiting to be assigned
  add-expense -name N -amount A [-payer P] [-color #rrggbb] [-keep]
  assign SHARED_ID                       split a shared expense over the group

Assigned expenses:
  show                                   list assigned expenses and shares
  edit EXPENSE_ID PERSON_ID AMOUNT       set and lock a share
  unlock EXPENSE_ID PERSON_ID            return a share to the even split
  paid EXPENSE_ID PERSON_ID              mark a share paid
  unpaid EXPENSE_ID PERSON_ID            clear the paid mark
  join EXPENSE_ID PERSON_ID              add a person to an expense
  leave EXPENSE_ID PERSON_ID             remove a person from an expense
  drop EXPENSE_ID                        remove an assigned expense

Reports:
  history                                recent assignments
  debts                                  who should pay whom
  export FILE.xlsx|FILE.csv              write a spreadsheet
`

func usage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

type cli struct {
	ledger *service.Ledger
	out    io.Writer
	cfg    *config.Config
}

func (c *cli) dispatch(ctx context.Context, cmd string, args []string) error {
	need := func(n int) error {
		if len(args) != n {
			return usagef("%s: expected %d argument(s), got %d", cmd, n, len(args))
		}
		return nil
	}

	switch cmd {
	case "help":
		usage(c.out)
		return nil
	case "people":
		c.printPeople()
		return nil
	case "add-person":
		if len(args) == 0 {
			return need(1)
		}
		p, err := c.ledger.AddPerson(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "added %s (%s)\n", p.Name, p.ID)
		return nil
	case "remove-person":
		if err := need(1); err != nil {
			return err
		}
		return c.ledger.RemovePerson(ctx, args[0])
	case "shared":
		c.printShared()
		return nil
	case "add-expense":
		return c.addExpense(ctx, args)
	case "assign":
		if err := need(1); err != nil {
			return err
		}
		e, err := c.ledger.AssignExpense(ctx, args[0])
		if err != nil {
			return err
		}
		c.printExpense(e)
		return nil
	case "show":
		for _, e := range c.ledger.AssignedExpenses() {
			c.printExpense(e)
		}
		return nil
	case "edit":
		if err := need(3); err != nil {
			return err
		}
		return c.printed(c.ledger.EditShare(ctx, args[0], args[1], args[2]))
	case "unlock":
		if err := need(2); err != nil {
			return err
		}
		return c.printed(c.ledger.UnlockShare(ctx, args[0], args[1]))
	case "paid", "unpaid":
		if err := need(2); err != nil {
			return err
		}
		return c.printed(c.ledger.SetPaid(ctx, args[0], args[1], cmd == "paid"))
	case "join":
		if err := need(2); err != nil {
			return err
		}
		return c.printed(c.ledger.AddParticipant(ctx, args[0], args[1]))
	case "leave":
		if err := need(2); err != nil {
			return err
		}
		return c.printed(c.ledger.RemoveParticipant(ctx, args[0], args[1]))
	case "drop":
		if err := need(1); err != nil {
			return err
		}
		return c.ledger.RemoveAssignedExpense(ctx, args[0])
	case "history":
		c.printHistory()
		return nil
	case "debts":
		c.printDebts()
		return nil
	case "export":
		if err := need(1); err != nil {
			return err
		}
		return c.export(args[0])
	default:
		usage(c.out)
		return usagef("unknown command %q", cmd)
	}
}

func (c *cli) addExpense(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add-expense", flag.ContinueOnError)
	fs.SetOutput(c.out)
	name := fs.String("name", "", "expense name")
	amount := fs.String("amount", "", "expense total")
	payer := fs.String("payer", models.PayerEveryone, "who paid: a person's name or Everyone")
	color := fs.String("color", models.DefaultColor, "card color as #rrggbb")
	keep := fs.Bool("keep", false, "keep the expense in the shared pool after assigning it")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	e, err := c.ledger.AddSharedExpense(ctx, service.ExpenseInput{
		Name:                  *name,
		Amount:                *amount,
		Color:                 *color,
		Payer:                 *payer,
		RemoveAfterAssignment: !*keep,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "added %s %s (%s)\n", e.Name, c.money(e.Amount), e.ID)
	return nil
}

func (c *cli) export(path string) error {
	report := export.Report{
		People:   c.ledger.People(),
		Assigned: c.ledger.AssignedExpenses(),
		History:  c.ledger.History(0),
		Debts:    c.ledger.Debts(),
	}

	var write func(io.Writer, export.Report) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		write = export.WriteXLSX
	case ".csv":
		write = export.WriteCSV
	default:
		return fmt.Errorf("export: unsupported file type %q", filepath.Ext(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := write(f, report); err != nil {
		f.Close()
		return fmt.Errorf("export: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	fmt.Fprintf(c.out, "wrote %s\n", path)
	return nil
}

func (c *cli) printed(e models.Expense, err error) error {
	if err != nil {
		return err
	}
	c.printExpense(e)
	return nil
}

func (c *cli) money(v float64) string {
	return money.Format(v, c.cfg.Currency.Symbol)
}

func (c *cli) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
}

func (c *cli) printPeople() {
	tw := c.table()
	fmt.Fprintln(tw, "ID\tNAME\tOWES")
	for _, p := range c.ledger.People() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Name, c.money(p.Balance))
	}
	tw.Flush()
}

func (c *cli) printShared() {
	tw := c.table()
	fmt.Fprintln(tw, "ID\tNAME\tAMOUNT\tPAID BY\tREUSABLE")
	for _, e := range c.ledger.SharedExpenses() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", e.ID, e.Name, c.money(e.Amount), e.Payer, !e.RemoveAfterAssignment)
	}
	tw.Flush()
}

func (c *cli) printExpense(e models.Expense) {
	fmt.Fprintf(c.out, "%s  %s  paid by %s  (%s)\n", e.Name, c.money(e.Amount), e.Payer, e.ID)
	tw := c.table()
	for _, p := range e.AssignedPayments {
		var flags []string
		if p.Paid {
			flags = append(flags, "paid")
		}
		if p.Locked {
			flags = append(flags, "locked")
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", p.PersonID, p.PersonName, c.money(p.Amount), strings.Join(flags, ","))
	}
	tw.Flush()
}

func (c *cli) printHistory() {
	tw := c.table()
	fmt.Fprintln(tw, "WHEN\tNAME\tAMOUNT\tPAID BY")
	for _, e := range c.ledger.History(c.cfg.History.Limit) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.AssignedAt.Local().Format("Jan 2 15:04"), e.Name, c.money(e.Amount), e.Payer)
	}
	tw.Flush()
}

func (c *cli) printDebts() {
	debts := c.ledger.Debts()
	if len(debts) == 0 {
		fmt.Fprintln(c.out, "nobody owes anybody")
		return
	}
	for _, d := range debts {
		fmt.Fprintf(c.out, "%s owes %s %s\n", d.From, d.To, c.money(d.Amount))
	}
}
