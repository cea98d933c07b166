package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wind-7274/seatlease-process/internal/unlock"
)

var errNothingUnlocked = errors.New("no workbook could be unlocked")

func newUnlockCommand() *cobra.Command {
	var password, out string

	cmd := &cobra.Command{
		Use:   "unlock --password P FILE...",
		Short: "Remove a known password from encrypted Excel workbooks",
		Long:  "Decrypts every FILE with the same password and writes the unlocked copies into a single zip archive.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make([]unlock.File, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				files = append(files, unlock.File{Name: filepath.Base(path), Data: data})
			}

			report, err := unlock.Batch(cmd.Context(), password, files)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, name := range report.Unlocked {
				fmt.Fprintf(w, "unlocked  %s\n", name)
			}
			for _, f := range report.Failures {
				fmt.Fprintf(w, "failed    %s: %s\n", f.Name, f.Error)
			}

			if len(report.Unlocked) == 0 {
				return errNothingUnlocked
			}
			if err := os.WriteFile(out, report.Archive, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(w, "wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "workbook password")
	cmd.Flags().StringVarP(&out, "out", "o", unlock.ArchiveName, "output zip archive")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
