// Package export writes parsed rows and derived operations to a workbook
// for administrative inspection.
package export

import (
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/tradeflow/internal/model"
)

// Sheet names.
const (
	SheetRows       = "rows"
	SheetOperations = "operations"
	SheetAlerts     = "alerts"
)

// Table is one source's header and rows.
type Table struct {
	Source string
	Fields []string
	Rows   []model.RawRow
}

var operationHeader = []string{
	"id", "source_key", "country", "client", "tax_id",
	"importer_country", "exporter_country", "total_value", "currency",
	"payment_terms", "incoterm_buy", "incoterm_sell",
	"draws", "draws_total", "releases", "releases_total",
	"total_progress", "completed_phases", "current_phase",
	"phase_1", "phase_2", "phase_3", "phase_4", "phase_5",
	"valid", "warnings", "errors", "alerts", "derived_at",
}

var alertHeader = []string{"operation_id", "client", "kind", "severity", "item", "label", "due_date", "days_delta", "message"}

// Workbook builds the export workbook. The rows sheet stacks every table,
// each preceded by its own header and with the source path as first column.
func Workbook(tables []Table, ops []*model.OperationDetail) (*xlsx.File, error) {
	f := xlsx.NewFile()

	rowsSheet, err := f.AddSheet(SheetRows)
	if err != nil {
		return nil, eris.Wrap(err, "export: add rows sheet")
	}
	for _, t := range tables {
		addStrings(rowsSheet, append([]string{"source"}, t.Fields...))
		for _, r := range t.Rows {
			vals := make([]string, 0, len(t.Fields)+1)
			vals = append(vals, t.Source)
			for _, col := range t.Fields {
				vals = append(vals, r[col])
			}
			addStrings(rowsSheet, vals)
		}
	}

	opSheet, err := f.AddSheet(SheetOperations)
	if err != nil {
		return nil, eris.Wrap(err, "export: add operations sheet")
	}
	addStrings(opSheet, operationHeader)
	for _, op := range ops {
		addOperation(opSheet, op)
	}

	alertSheet, err := f.AddSheet(SheetAlerts)
	if err != nil {
		return nil, eris.Wrap(err, "export: add alerts sheet")
	}
	addStrings(alertSheet, alertHeader)
	for _, op := range ops {
		for _, a := range op.Alerts {
			row := alertSheet.AddRow()
			row.AddCell().SetString(op.ID)
			row.AddCell().SetString(op.Client)
			row.AddCell().SetString(string(a.Kind))
			row.AddCell().SetString(string(a.Severity))
			row.AddCell().SetString(string(a.Item))
			row.AddCell().SetString(a.Label)
			if a.DueDate != nil {
				row.AddCell().SetString(a.DueDate.Format("2006-01-02"))
				row.AddCell().SetInt(a.DaysDelta)
			} else {
				row.AddCell().SetString("")
				row.AddCell().SetString("")
			}
			row.AddCell().SetString(a.Message)
		}
	}
	return f, nil
}

// Write builds the workbook and writes it to w.
func Write(w io.Writer, tables []Table, ops []*model.OperationDetail) error {
	f, err := Workbook(tables, ops)
	if err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write workbook")
	}
	return nil
}

// WriteFile builds the workbook and saves it to path.
func WriteFile(path string, tables []Table, ops []*model.OperationDetail) error {
	f, err := Workbook(tables, ops)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func addStrings(sheet *xlsx.Sheet, vals []string) {
	row := sheet.AddRow()
	for _, v := range vals {
		row.AddCell().SetString(v)
	}
}

func addOperation(sheet *xlsx.Sheet, op *model.OperationDetail) {
	row := sheet.AddRow()
	str := func(s string) { row.AddCell().SetString(s) }
	num := func(n int) { row.AddCell().SetInt(n) }

	str(op.ID)
	str(op.SourceKey)
	str(op.Country)
	str(op.Client)
	str(op.TaxID)
	str(op.ImporterCountry)
	str(op.ExporterCountry)
	row.AddCell().SetFloat(op.TotalValue.InexactFloat64())
	str(op.Currency)
	str(op.PaymentTerms)
	str(op.IncotermBuy)
	str(op.IncotermSell)

	info := model.ParsedGeneralInfo{Draws: op.Draws, Releases: op.Releases}
	num(len(op.Draws))
	row.AddCell().SetFloat(info.DrawTotal().InexactFloat64())
	num(len(op.Releases))
	row.AddCell().SetFloat(info.ReleaseTotal().InexactFloat64())

	num(op.Progress.TotalProgress)
	num(op.Progress.CompletedPhases)
	if op.Progress.CurrentPhase != nil {
		num(*op.Progress.CurrentPhase)
	} else {
		str("")
	}
	for n := 1; n <= model.PhaseCount; n++ {
		p := op.Progress.Phase(n)
		if p == nil {
			str("")
			continue
		}
		str(strconv.Itoa(p.Progress) + "% " + string(p.Status))
	}

	if op.Validation.Valid {
		str("yes")
	} else {
		str("no")
	}
	num(len(op.Validation.Warnings))
	num(len(op.Validation.Errors))
	num(len(op.Alerts))
	row.AddCell().SetDateTime(op.DerivedAt)
}
