// Command splitway manages a group's shared expenses from the terminal.
//
// Usage:
//
//	splitway [-config FILE] <command> [args]
//
// Run "splitway help" for the list of commands.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/splitway/internal/config"
	"github.com/mmynk/splitway/internal/metrics"
	"github.com/mmynk/splitway/internal/service"
	"github.com/mmynk/splitway/internal/storage/sqlite"
	"github.com/mmynk/splitway/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if code := exitCode(run(ctx, os.Args[1:], os.Stdout), os.Stderr); code != 0 {
		os.Exit(code)
	}
}

// exitCode reports err on w and maps it to an exit status: 2 for usage
// errors, 1 for anything else. A bare usage error prints nothing since the
// usage text is already out.
func exitCode(err error, w io.Writer) int {
	if err == nil {
		return 0
	}
	var ue usageError
	if errors.As(err, &ue) {
		if ue != "" {
			fmt.Fprintln(w, "splitway:", ue)
		}
		return 2
	}
	fmt.Fprintln(w, "splitway:", err)
	return 1
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("splitway", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", "", "path to a YAML config file (default ./splitway.yaml if present)")
	fs.Usage = func() { usage(out) }
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		usage(out)
		return errUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logging.SetupWithLevel(logging.ParseLevel(cfg.Log.Level))

	store, err := sqlite.New(cfg.Data.Path)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()
	slog.Debug("Storage initialized", "database", cfg.Data.Path)

	reg := prometheus.NewRegistry()
	ledger := service.NewLedger(store, metrics.New(reg))
	if err := ledger.Load(ctx); err != nil {
		return err
	}

	app := &cli{ledger: ledger, out: out, cfg: cfg}
	err = app.dispatch(ctx, fs.Arg(0), fs.Args()[1:])

	if cfg.Metrics.Textfile != "" {
		if werr := prometheus.WriteToTextfile(cfg.Metrics.Textfile, reg); werr != nil {
			slog.Error("Failed to write metrics textfile", "path", cfg.Metrics.Textfile, "error", werr)
		}
	}
	return err
}
