package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "boq2xlsx",
		Short:         "Extract bill-of-quantities tables from a PDF into an Excel workbook",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(extractCmd())
	root.AddCommand(pagesCmd())

	if err := root.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
}
