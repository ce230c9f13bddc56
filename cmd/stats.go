package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sells-group/tradeflow/internal/rows"
)

var statsCmd = &cobra.Command{
	Use:   "stats [file...]",
	Short: "Show size, age and row estimate of the source files",
	RunE: func(cmd *cobra.Command, args []string) error {
		useFiles(cfg, args)
		svc, err := initService(cfg, "derive")
		if err != nil {
			return err
		}

		st, err := svc.Stats()
		if err != nil {
			return err
		}
		formatStats(os.Stdout, st, time.Now())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

// formatStats writes one line per file to w.
func formatStats(out io.Writer, stats []rows.Stats, now time.Time) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PATH\tSIZE\tROWS\tMODIFIED")
	_, _ = fmt.Fprintln(w, "----\t----\t----\t--------")

	for _, s := range stats {
		if !s.Exists {
			_, _ = fmt.Fprintf(w, "%s\tmissing\t-\t-\n", s.Path)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t~%s\t%s\n",
			s.Path,
			humanize.Bytes(uint64(s.Size)),
			humanize.Comma(int64(s.RowCountEstimate)),
			humanize.RelTime(s.LastModified, now, "ago", "from now"),
		)
	}
	_ = w.Flush()
}
