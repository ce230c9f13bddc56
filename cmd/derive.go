package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/tradeflow/internal/model"
)

var (
	deriveFormat  string
	deriveCountry string
	deriveOut     string
)

var deriveCmd = &cobra.Command{
	Use:   "derive [file...]",
	Short: "Derive operations from the source files",
	Long:  "Runs the full derivation (extraction, progress, dates, validation, alerts) and prints the operations.",
	RunE: func(cmd *cobra.Command, args []string) error {
		useFiles(cfg, args)
		svc, err := initService(cfg, "derive")
		if err != nil {
			return err
		}

		ops, err := svc.Operations(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "derive")
		}
		ops = filterCountry(ops, deriveCountry)

		out := io.Writer(os.Stdout)
		if deriveOut != "" {
			f, err := os.Create(deriveOut)
			if err != nil {
				return eris.Wrap(err, "derive: create output")
			}
			defer f.Close() //nolint:errcheck
			out = f
		}

		switch deriveFormat {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(ops); err != nil {
				return eris.Wrap(err, "derive: encode")
			}
		case "table":
			formatOperations(out, ops)
		default:
			return eris.Errorf("derive: unknown format %q", deriveFormat)
		}

		zap.L().Info("derive complete", zap.Int("operations", len(ops)))
		return nil
	},
}

func init() {
	deriveCmd.Flags().StringVar(&deriveFormat, "format", "table", "output format: table or json")
	deriveCmd.Flags().StringVar(&deriveCountry, "country", "", "only operations of this country code")
	deriveCmd.Flags().StringVarP(&deriveOut, "out", "o", "", "write to file instead of stdout")
	rootCmd.AddCommand(deriveCmd)
}

func filterCountry(ops []*model.OperationDetail, code string) []*model.OperationDetail {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return ops
	}
	out := make([]*model.OperationDetail, 0, len(ops))
	for _, op := range ops {
		if op.Country == code {
			out = append(out, op)
		}
	}
	return out
}

// formatOperations writes a tabular list of operations to w.
func formatOperations(out io.Writer, ops []*model.OperationDetail) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tKEY\tCOUNTRY\tCLIENT\tTOTAL\tPROGRESS\tPHASE\tVALID\tALERTS")
	_, _ = fmt.Fprintln(w, "--\t---\t-------\t------\t-----\t--------\t-----\t-----\t------")

	for _, op := range ops {
		client := op.Client
		if len(client) > 30 {
			client = client[:27] + "..."
		}
		phase := "-"
		if op.Progress.CurrentPhase != nil {
			phase = fmt.Sprintf("%d", *op.Progress.CurrentPhase)
		}
		valid := "yes"
		if !op.Validation.Valid {
			valid = "no"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d%%\t%s\t%s\t%d\n",
			truncateID(op.ID),
			dash(op.SourceKey),
			op.Country,
			dash(client),
			formatMoney(op),
			op.Progress.TotalProgress,
			phase,
			valid,
			len(op.Alerts),
		)
	}
	_ = w.Flush()
}

func formatMoney(op *model.OperationDetail) string {
	if op.TotalValue.IsZero() {
		return "-"
	}
	s := humanize.CommafWithDigits(op.TotalValue.InexactFloat64(), 2)
	if op.Currency != "" {
		s = op.Currency + " " + s
	}
	return s
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
