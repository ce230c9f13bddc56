package rows

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/tradeflow/internal/model"
)

// ParseXLSX reads a workbook export of the same table. Cells are already
// split, so only empty rows are dropped. sheet selects a sheet by name; ""
// means the first sheet.
func ParseXLSX(path, sheet string) (*Result, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "rows: open workbook")
	}

	sh, err := pickSheet(f, sheet)
	if err != nil {
		return nil, err
	}
	if len(sh.Rows) == 0 {
		return nil, eris.New("rows: no header row")
	}

	header := cellStrings(sh.Rows[0])
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	res := &Result{Fields: header}
	for _, r := range sh.Rows[1:] {
		cells := cellStrings(r)
		if isBlank(cells) {
			continue
		}
		row := make(model.RawRow, len(header))
		for i, col := range header {
			if i < len(cells) {
				row[col] = cells[i]
			} else {
				row[col] = ""
			}
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

func pickSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sh, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("rows: sheet %q not found", name)
		}
		return sh, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("rows: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

func cellStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
