package cli

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/wind-7274/seatlease-process/internal/phone"
	"github.com/wind-7274/seatlease-process/internal/sheet"
)

type splitFlags struct {
	sep        string
	keepEmpty  bool
	e164       bool
	validOut   string
	invalidOut string
	workers    int
}

func newSplitCommand() *cobra.Command {
	defaults := phone.DefaultOptions()
	f := splitFlags{}

	cmd := &cobra.Command{
		Use:   "split INPUT",
		Short: "Split, clean and validate the numbers column of a CSV or Excel file",
		Long: "Reads INPUT (.xlsx or .csv). The first column is the identifier and the second holds " +
			"delimited phone numbers. Valid numbers are written one per column to --valid-out and " +
			"rejected tokens to --invalid-out. The output format follows each file's extension.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplit(cmd, args[0], f)
		},
	}

	cmd.Flags().StringVar(&f.sep, "sep", defaults.Separator, "separator between numbers; empty disables splitting")
	cmd.Flags().BoolVar(&f.keepEmpty, "keep-empty", defaults.KeepEmpty, "keep identifiers that have no valid number")
	cmd.Flags().BoolVar(&f.e164, "e164", defaults.E164, "write valid numbers in international format")
	cmd.Flags().StringVar(&f.validOut, "valid-out", "valid_numbers_per_id.xlsx", "output file for valid numbers")
	cmd.Flags().StringVar(&f.invalidOut, "invalid-out", "invalid_numbers.xlsx", "output file for invalid numbers")
	cmd.Flags().IntVar(&f.workers, "workers", runtime.GOMAXPROCS(0), "parallel workers")

	return cmd
}

func runSplit(cmd *cobra.Command, input string, f splitFlags) error {
	start := time.Now()

	in, err := os.Open(input)
	if err != nil {
		return err
	}
	defer in.Close()

	tbl, err := sheet.Read(input, in)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}
	records, idHeader, err := phone.RecordsFromTable(tbl)
	if err != nil {
		return err
	}

	opts := phone.Options{Separator: f.sep, KeepEmpty: f.keepEmpty, E164: f.e164}
	res, err := phone.ProcessParallel(cmd.Context(), records, opts, f.workers)
	if err != nil {
		return err
	}
	res.IDHeader = idHeader

	if err := writeTable(f.validOut, res.ValidTable(), "Valid Numbers"); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "records:         %d\n", res.Records)
	fmt.Fprintf(out, "valid ids:       %d\n", len(res.Valid))
	fmt.Fprintf(out, "valid numbers:   %d\n", res.ValidCount())
	fmt.Fprintf(out, "invalid entries: %d\n", len(res.Invalid))
	fmt.Fprintf(out, "wrote %s\n", f.validOut)

	if len(res.Invalid) > 0 {
		if err := writeTable(f.invalidOut, res.InvalidTable(), "Invalid Numbers"); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", f.invalidOut)
	}

	slog.Info("split completed", "input", input, "records", res.Records, "workers", f.workers, "duration", time.Since(start))
	return nil
}

// writeTable writes t to path in the format its extension names.
func writeTable(path string, t *sheet.Table, sheetName string) (err error) {
	format, err := sheet.DetectFormat(path)
	if err != nil {
		return fmt.Errorf("output %s: %w", path, err)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	return sheet.Write(out, t, format, sheetName)
}
