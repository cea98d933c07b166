package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wind-7274/seatlease-process/internal/phone"
)

func newCheckCommand() *cobra.Command {
	var explain, e164 bool

	cmd := &cobra.Command{
		Use:   "check NUMBER...",
		Short: "Normalize and validate individual phone numbers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			if explain {
				fmt.Fprintln(tw, "INPUT\tCLEANED\tRULE\tFORMATTED\tKIND")
			} else {
				fmt.Fprintln(tw, "INPUT\tFORMATTED\tKIND")
			}

			for _, arg := range args {
				cleaned := phone.Clean(arg)
				formatted, rule := phone.Explain(cleaned)
				kind := phone.Classify(formatted)
				if e164 && kind != phone.KindInvalid {
					formatted = phone.ToE164(formatted)
				}

				if explain {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", arg, cleaned, rule, formatted, kind)
				} else {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", arg, formatted, kind)
				}
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&explain, "explain", false, "show the cleaned value and the formatting rule applied")
	cmd.Flags().BoolVar(&e164, "e164", false, "show valid numbers in international format")
	return cmd
}
