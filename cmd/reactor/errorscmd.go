package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	rerrors "github.com/vango-dev/reactor/internal/errors"
)

func errorsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "errors [code]",
		Short: "List error codes or explain one",
		Long: `Without arguments, list every error code the runtime reports.
With a code, print its explanation and documentation link.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return explainCode(cmd.OutOrStdout(), args[0], asJSON)
			}
			writeCodes(cmd.OutOrStdout(), asJSON)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print one JSON object per code")
	return cmd
}

// writeCodes lists the registered codes as a table or as JSON lines.
func writeCodes(w io.Writer, asJSON bool) {
	codes := rerrors.GetAllCodes()
	if asJSON {
		for _, code := range codes {
			fmt.Fprintln(w, rerrors.New(code).FormatJSON())
		}
		return
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.AppendHeader(table.Row{"code", "category", "message"})
	for _, code := range codes {
		e := rerrors.New(code)
		tbl.AppendRow(table.Row{e.Code, e.Category, e.Message})
	}
	tbl.Render()
}

func explainCode(w io.Writer, code string, asJSON bool) error {
	if _, ok := rerrors.GetTemplate(code); !ok {
		return rerrors.Newf(rerrors.CategoryCLI, "unknown error code %q", code).
			WithSuggestion("Run `reactor errors` to list the known codes.")
	}
	e := rerrors.New(code)
	if asJSON {
		fmt.Fprintln(w, e.FormatJSON())
		return nil
	}
	fmt.Fprint(w, e.Format())
	return nil
}

// printError writes err in the structured error layout. Uncoded errors are
// reported as CLI errors.
func printError(w io.Writer, err error) {
	var re *rerrors.Error
	if !errors.As(err, &re) {
		re = rerrors.Newf(rerrors.CategoryCLI, "%s", err)
	}
	fmt.Fprint(w, re.Format())
}
