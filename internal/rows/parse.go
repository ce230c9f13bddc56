// Package rows turns the raw text of a hand-maintained tabular export into
// header-keyed records, tolerating quoted fields that span several lines.
package rows

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/tradeflow/internal/model"
	"github.com/sells-group/tradeflow/internal/textutil"
)

// DefaultRecordMarker matches the first column of a new record ("OP-123,").
const DefaultRecordMarker = `^[A-Z]{2,10}-\d+`

// DefaultMinFieldRatio is the share of header columns a row must carry.
const DefaultMinFieldRatio = 0.6

// Options configures Parse.
type Options struct {
	Delimiter     rune           // 0 = detect from header (',' or ';')
	RecordMarker  *regexp.Regexp // nil = no marker heuristic
	MinFieldRatio float64        // 0 = DefaultMinFieldRatio
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		RecordMarker:  regexp.MustCompile(DefaultRecordMarker),
		MinFieldRatio: DefaultMinFieldRatio,
	}
}

// RowWarning records a logical row that was dropped, padded or truncated.
type RowWarning struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
	Fields int    `json:"fields"`
}

// Result is the outcome of one parse pass.
type Result struct {
	Fields   []string       `json:"fields"`
	Rows     []model.RawRow `json:"rows"`
	Warnings []RowWarning   `json:"warnings,omitempty"`
}

// Parse splits text into header-keyed rows. Malformed rows are dropped with a
// warning; only an input without a header is an error.
func Parse(text string, opts Options) (*Result, error) {
	text = strings.TrimPrefix(text, "\uFEFF")
	text = textutil.NormalizeNewlines(text)
	if strings.TrimSpace(text) == "" {
		return nil, eris.New("rows: empty input")
	}

	lines := strings.Split(text, "\n")
	delim := opts.Delimiter
	if delim == 0 {
		delim = detectDelimiter(firstNonEmpty(lines))
	}
	ratio := opts.MinFieldRatio
	if ratio <= 0 {
		ratio = DefaultMinFieldRatio
	}

	logical := newSplitter(byte(delim), opts.RecordMarker).split(lines)
	if len(logical) == 0 {
		return nil, eris.New("rows: no header row")
	}

	header, err := tokenize(logical[0].text, delim)
	if err != nil {
		return nil, eris.Wrap(err, "rows: parse header")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	res := &Result{Fields: header}
	minFields := int(float64(len(header)) * ratio)
	log := zap.L().With(zap.String("component", "rows"))

	for _, lr := range logical[1:] {
		if lr.unterminated {
			res.Warnings = append(res.Warnings, RowWarning{Line: lr.startLine, Reason: "unterminated quoted field"})
			log.Warn("rows: dropping row with unterminated quote", zap.Int("line", lr.startLine))
			continue
		}

		fields, tokErr := tokenize(lr.text, delim)
		if tokErr != nil {
			res.Warnings = append(res.Warnings, RowWarning{Line: lr.startLine, Reason: tokErr.Error()})
			log.Warn("rows: dropping untokenizable row", zap.Int("line", lr.startLine), zap.Error(tokErr))
			continue
		}

		if len(fields) < minFields {
			res.Warnings = append(res.Warnings, RowWarning{
				Line:   lr.startLine,
				Reason: fmt.Sprintf("too few fields: %d of %d (minimum %d)", len(fields), len(header), minFields),
				Fields: len(fields),
			})
			log.Warn("rows: dropping malformed row",
				zap.Int("line", lr.startLine),
				zap.Int("fields", len(fields)),
				zap.Int("expected", len(header)),
			)
			continue
		}

		row := make(model.RawRow, len(header))
		for i, col := range header {
			if i < len(fields) {
				row[col] = fields[i]
			} else {
				row[col] = ""
			}
		}
		if len(fields) > len(header) {
			res.Warnings = append(res.Warnings, RowWarning{
				Line:   lr.startLine,
				Reason: fmt.Sprintf("too many fields: %d of %d (extra fields ignored)", len(fields), len(header)),
				Fields: len(fields),
			})
			log.Warn("rows: ignoring extra fields",
				zap.Int("line", lr.startLine),
				zap.Int("fields", len(fields)),
				zap.Int("expected", len(header)),
			)
		}
		res.Rows = append(res.Rows, row)
	}

	return res, nil
}

// tokenize splits one logical row into fields. Surrounding quotes are removed
// and doubled quotes collapsed by the csv reader.
func tokenize(row string, delim rune) ([]string, error) {
	r := csv.NewReader(strings.NewReader(row))
	r.Comma = delim
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	var record []string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "tokenize")
		}
		if record == nil {
			record = rec
			continue
		}
		// A newline outside quotes continues the last unquoted field.
		record[len(record)-1] += "\n" + rec[0]
		record = append(record, rec[1:]...)
	}
	if record == nil {
		return nil, eris.New("empty row")
	}
	return record, nil
}

// detectDelimiter prefers ';' when the header carries more of them than ','.
func detectDelimiter(header string) rune {
	if strings.Count(header, ";") > strings.Count(header, ",") {
		return ';'
	}
	return ','
}

func firstNonEmpty(lines []string) string {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return l
		}
	}
	return ""
}
