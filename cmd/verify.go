package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/krpsim/krpsim/sim/rules"
	"github.com/krpsim/krpsim/sim/verify"
)

func newVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <rules-file> <trace-file>",
		Short: "Check that a trace is a legal execution of a rule file",
		Long: `Replay a trace against a rule file's processes and initial stock.

Verification stops at the first violation, prints it together with the stock
at that point, and exits with status 1.`,
		Args: cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			err := runVerify(args[0], args[1], cmd.OutOrStdout())
			var violation *verify.Error
			if errors.As(err, &violation) {
				os.Exit(1)
			}
			if err != nil {
				logrus.Fatalf("%v", err)
			}
		},
	}
}

// runVerify prints either the verification report or the first violation.
// A violation is returned as a *verify.Error after it has been printed.
func runVerify(rulesPath, tracePath string, w io.Writer) error {
	rs, err := rules.ParseFile(rulesPath)
	if err != nil {
		return err
	}
	f, err := os.Open(tracePath)
	if err != nil {
		return fmt.Errorf("opening trace file: %w", err)
	}
	defer func() { _ = f.Close() }()

	report, err := verify.New(rs.Catalog, rs.Stock).Run(f)
	var violation *verify.Error
	if errors.As(err, &violation) {
		fmt.Fprintln(w, violation.Error())
		printStock(w, "Stock:", violation.Stock)
		return violation
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\nProgress is correct!\n\n")
	printStock(w, "Initial stock:", report.Initial)
	printStock(w, "Final stock:", report.Final)
	fmt.Fprintf(w, "Last cycle: %d\n", report.LastCycle)
	return nil
}
