package main

import (
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/tradeflow/internal/export"
	"github.com/sells-group/tradeflow/internal/model"
	"github.com/sells-group/tradeflow/internal/service"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export [file...]",
	Short: "Write rows, operations and alerts to an xlsx workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		useFiles(cfg, args)
		svc, err := initService(cfg, "derive")
		if err != nil {
			return err
		}

		snaps, err := svc.Snapshots(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "export")
		}
		tables, ops := exportTables(snaps)

		path := exportOut
		if path == "" {
			path = filepath.Join(cfg.Export.Dir, "tradeflow-"+time.Now().Format("20060102-150405")+".xlsx")
		}
		if err := export.WriteFile(path, tables, ops); err != nil {
			return err
		}

		zap.L().Info("export written",
			zap.String("path", path),
			zap.Int("sources", len(tables)),
			zap.Int("operations", len(ops)),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output workbook path (default export.dir/tradeflow-<time>.xlsx)")
	rootCmd.AddCommand(exportCmd)
}

// exportTables collects the available snapshots. Unavailable sources are
// skipped with a warning.
func exportTables(snaps []*service.Snapshot) ([]export.Table, []*model.OperationDetail) {
	var (
		tables []export.Table
		ops    []*model.OperationDetail
	)
	for _, s := range snaps {
		if !s.Available {
			zap.L().Warn("export: skipping unavailable source",
				zap.String("source", s.Source),
				zap.String("reason", s.Reason),
			)
			continue
		}
		tables = append(tables, export.Table{Source: s.Source, Fields: s.Fields, Rows: s.Rows})
		ops = append(ops, s.Operations...)
	}
	return tables, ops
}
