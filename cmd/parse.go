package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/tradeflow/internal/config"
	"github.com/sells-group/tradeflow/internal/service"
)

var parseFormat string

var parseCmd = &cobra.Command{
	Use:   "parse [file...]",
	Short: "Parse source files into header-keyed rows",
	Long:  "Parses the configured source files (or the files given as arguments) and prints a summary, or every row as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		useFiles(cfg, args)
		svc, err := initService(cfg, "derive")
		if err != nil {
			return err
		}

		snaps, err := svc.Snapshots(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "parse")
		}

		switch parseFormat {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(snaps)
		case "table":
			formatSnapshots(os.Stdout, snaps)
			return nil
		default:
			return eris.Errorf("parse: unknown format %q", parseFormat)
		}
	},
}

func init() {
	parseCmd.Flags().StringVar(&parseFormat, "format", "table", "output format: table or json")
	rootCmd.AddCommand(parseCmd)
}

// useFiles replaces the configured sources with explicit paths. The country
// of each file is detected from its header.
func useFiles(c *config.Config, paths []string) {
	if len(paths) == 0 {
		return
	}
	files := make([]config.SourceFile, 0, len(paths))
	for _, p := range paths {
		files = append(files, config.SourceFile{Path: p})
	}
	c.Source.Files = files
}

// formatSnapshots writes one line per source to w.
func formatSnapshots(out io.Writer, snaps []*service.Snapshot) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SOURCE\tCOUNTRY\tFIELDS\tROWS\tDROPPED\tOPERATIONS\tSTATUS")
	_, _ = fmt.Fprintln(w, "------\t-------\t------\t----\t-------\t----------\t------")

	for _, s := range snaps {
		status := "ok"
		switch {
		case !s.Available:
			status = "unavailable: " + s.Reason
		case s.Stale:
			status = "stale: " + s.Reason
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			s.Source,
			dash(s.Country),
			len(s.Fields),
			len(s.Rows),
			len(s.Warnings),
			len(s.Operations),
			status,
		)
	}
	_ = w.Flush()

	for _, s := range snaps {
		for _, warn := range s.Warnings {
			_, _ = fmt.Fprintf(out, "%s:%d: dropped (%s, %d fields)\n", s.Source, warn.Line, warn.Reason, warn.Fields)
		}
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
