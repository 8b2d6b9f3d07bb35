// Command hrdash-inspect derives the recruitment dashboard for one workbook
// and prints it to stdout.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hrdash/internal/dashboard"
	"hrdash/internal/sheet"
)

type inspectOptions struct {
	poc        string
	month      string
	duplicates string
	columnMap  string
	strict     bool
	asJSON     bool
}

type report struct {
	File         string            `json:"file"`
	Sheet        string            `json:"sheet"`
	Choices      dashboard.Choices `json:"choices"`
	Result       dashboard.Result  `json:"result"`
	CountCards   []dashboard.Card  `json:"countCards"`
	PercentCards []dashboard.Card  `json:"percentCards"`
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts inspectOptions

	cmd := &cobra.Command{
		Use:   "hrdash-inspect [file.xlsx|file.xls]",
		Short: "Print the recruitment funnel of a workbook",
		Long: `hrdash-inspect parses the first sheet of an Excel workbook and prints
the stat cards and funnel distributions the dashboard would show.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), args[0], opts)
		},
	}
	cmd.SilenceUsage = true

	cmd.Flags().StringVar(&opts.poc, "poc", "", "Only rows of this POC")
	cmd.Flags().StringVar(&opts.month, "month", "", "Only rows of this month")
	cmd.Flags().StringVar(&opts.duplicates, "duplicates", string(dashboard.DuplicatesFirst), "Several matching rows: first or sum")
	cmd.Flags().StringVar(&opts.columnMap, "column-map", "", "Column overrides, e.g. poc=Recruiter,month=Period")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail when expected columns are missing")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print JSON instead of text")

	return cmd
}

func run(out io.Writer, path string, opts inspectOptions) error {
	contentType, ok := sheet.ContentTypeForExt(filepath.Ext(path))
	if !ok {
		return fmt.Errorf("%w: %s", sheet.ErrUnsupportedType, filepath.Base(path))
	}

	policy, err := dashboard.ParseDuplicatePolicy(opts.duplicates)
	if err != nil {
		return err
	}
	schema, err := dashboard.ParseColumnMap(opts.columnMap)
	if err != nil {
		return fmt.Errorf("invalid column map: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	table, err := sheet.Parse(f, contentType)
	if err != nil {
		return err
	}
	if opts.strict {
		if err := schema.Check(table.Headers); err != nil {
			return err
		}
	}

	filter := dashboard.Filter{POC: opts.poc, Month: opts.month}
	res := dashboard.Derive(table.Rows, filter, dashboard.Options{Schema: schema, Duplicates: policy})

	rep := report{
		File:         filepath.Base(path),
		Sheet:        table.Sheet,
		Choices:      dashboard.FilterChoices(table.Rows, schema),
		Result:       res,
		CountCards:   res.Metrics.CountCards(),
		PercentCards: res.Metrics.PercentCards(),
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	return writeText(out, rep)
}

func writeText(out io.Writer, rep report) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "File:\t%s (sheet %q)\n", rep.File, rep.Sheet)
	fmt.Fprintf(tw, "Rows:\t%d uploaded, %d matched\n", rep.Result.Uploaded, rep.Result.Matched)

	switch rep.Result.State {
	case dashboard.StateNoData:
		fmt.Fprintln(tw, "No data uploaded yet")
		return tw.Flush()
	case dashboard.StateNoMatch:
		fmt.Fprintln(tw, "No data found for selected filters.")
		return tw.Flush()
	}

	fmt.Fprintln(tw)
	for _, c := range append(rep.CountCards, rep.PercentCards...) {
		fmt.Fprintf(tw, "%s\t%s\n", c.Title, c.Value)
	}

	for _, d := range []struct {
		title string
		dist  dashboard.Distribution
	}{
		{"Screening Feedback", rep.Result.Metrics.Screening},
		{"Interview Status", rep.Result.Metrics.Interview},
	} {
		fmt.Fprintf(tw, "\n%s\n", d.title)
		for _, s := range d.dist {
			fmt.Fprintf(tw, "  %s\t%s\n", s.Label, dashboard.FormatCount(s.Value))
		}
	}
	return tw.Flush()
}
