package export

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/tradeflow/internal/model"
	"github.com/sells-group/tradeflow/internal/rows"
)

func sampleOperation() *model.OperationDetail {
	due := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	current := 2
	return &model.OperationDetail{
		ID:         "op-1",
		SourceKey:  "OP-1",
		Country:    "CO",
		Client:     "ACME",
		TaxID:      "900123456-7",
		TotalValue: decimal.NewFromInt(100000),
		Currency:   "USD",
		Draws: []model.Draw{
			{Amount: decimal.NewFromInt(30000), Label: "Giro 1"},
			{Amount: decimal.NewFromInt(70000), Label: "Giro 2"},
		},
		Releases: []model.Release{{Sequence: 1, Capital: decimal.NewFromInt(60000)}},
		Progress: model.OverallProgress{
			TotalProgress:   40,
			CompletedPhases: 1,
			CurrentPhase:    &current,
			Phases: []model.PhaseProgress{
				{Phase: 1, Progress: 100, Status: model.StatusCompleted},
				{Phase: 2, Progress: 50, Status: model.StatusInProgress},
			},
		},
		Validation: model.ValidationResult{Valid: true},
		Alerts: []model.Alert{
			{Kind: model.AlertOverdue, Severity: model.SeverityHigh, Item: model.ItemDraw, Label: "Giro 1", DueDate: &due, DaysDelta: -3, Message: "overdue"},
			{Kind: model.AlertReconciliation, Severity: model.SeverityMedium, Item: model.ItemOperation, Label: "Reconciliación", Message: "mismatch"},
		},
		DerivedAt: time.Date(2024, 4, 18, 0, 0, 0, 0, time.UTC),
	}
}

func sheetStrings(t *testing.T, sh *xlsx.Sheet) [][]string {
	t.Helper()
	out := make([][]string, 0, len(sh.Rows))
	for _, r := range sh.Rows {
		vals := make([]string, 0, len(r.Cells))
		for _, c := range r.Cells {
			vals = append(vals, c.String())
		}
		out = append(out, vals)
	}
	return out
}

func TestWorkbook(t *testing.T) {
	tables := []Table{{
		Source: "data/co.csv",
		Fields: []string{"Clave", "Datos Cliente"},
		Rows:   []model.RawRow{{"Clave": "OP-1", "Datos Cliente": "CLIENTE: ACME"}},
	}}

	f, err := Workbook(tables, []*model.OperationDetail{sampleOperation()})
	require.NoError(t, err)
	require.Len(t, f.Sheets, 3)

	got := sheetStrings(t, f.Sheet[SheetRows])
	assert.Equal(t, [][]string{
		{"source", "Clave", "Datos Cliente"},
		{"data/co.csv", "OP-1", "CLIENTE: ACME"},
	}, got)

	ops := sheetStrings(t, f.Sheet[SheetOperations])
	require.Len(t, ops, 2)
	assert.Equal(t, operationHeader, ops[0])
	assert.Equal(t, "op-1", ops[1][0])
	assert.Equal(t, "ACME", ops[1][3])
	assert.Equal(t, "2", ops[1][12], "draw count")
	assert.Equal(t, "1", ops[1][14], "release count")
	assert.Equal(t, "40", ops[1][16])
	assert.Equal(t, "2", ops[1][18])
	assert.Equal(t, "100% completed", ops[1][19])
	assert.Equal(t, "", ops[1][21], "missing phase")
	assert.Equal(t, "yes", ops[1][24])

	alerts := sheetStrings(t, f.Sheet[SheetAlerts])
	require.Len(t, alerts, 3)
	assert.Equal(t, []string{"op-1", "ACME", "overdue", "high", "draw", "Giro 1", "2024-04-15", "-3", "overdue"}, alerts[1])
	assert.Equal(t, "", alerts[2][6])
}

func TestWriteFile_RoundTripsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.xlsx")
	tables := []Table{{
		Source: "co.csv",
		Fields: []string{"Clave", "Estado Cotización"},
		Rows: []model.RawRow{
			{"Clave": "OP-1", "Estado Cotización": "Aprobada"},
			{"Clave": "OP-2", "Estado Cotización": ""},
		},
	}}
	require.NoError(t, WriteFile(path, tables, nil))

	res, err := rows.ParseXLSX(path, SheetRows)
	require.NoError(t, err)
	assert.Equal(t, []string{"source", "Clave", "Estado Cotización"}, res.Fields)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "Aprobada", res.Rows[0]["Estado Cotización"])
	assert.Equal(t, "OP-2", res.Rows[1]["Clave"])
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil, []*model.OperationDetail{sampleOperation()}))
	assert.Positive(t, buf.Len())

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	assert.Len(t, f.Sheet[SheetOperations].Rows, 2)
}
