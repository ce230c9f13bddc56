package rows

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Stats describes a source file without parsing it.
type Stats struct {
	Path             string    `json:"path"`
	Exists           bool      `json:"exists"`
	Size             int64     `json:"size"`
	RowCountEstimate int       `json:"row_count_estimate"`
	LastModified     time.Time `json:"last_modified"`
}

// IsWorkbook reports whether path names an .xlsx workbook.
func IsWorkbook(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}

// FileStats inspects path. A missing file is reported with Exists=false and
// no error; other I/O failures are returned. Workbook rows are counted from
// the first sheet; text exports are estimated from marker lines.
func FileStats(path string, marker *regexp.Regexp) (Stats, error) {
	st := Stats{Path: path}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, eris.Wrapf(err, "rows: stat %s", path)
	}
	st.Exists = true
	st.Size = info.Size()
	st.LastModified = info.ModTime()

	if IsWorkbook(path) {
		res, err := ParseXLSX(path, "")
		if err != nil {
			return st, eris.Wrapf(err, "rows: count %s", path)
		}
		st.RowCountEstimate = len(res.Rows)
		return st, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return st, eris.Wrapf(err, "rows: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	var markerLines, nonEmpty int
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		nonEmpty++
		if marker != nil && marker.MatchString(line) {
			markerLines++
		}
	}
	if err := sc.Err(); err != nil {
		return st, eris.Wrapf(err, "rows: scan %s", path)
	}

	switch {
	case markerLines > 0:
		st.RowCountEstimate = markerLines
	case nonEmpty > 0:
		st.RowCountEstimate = nonEmpty - 1
	}
	return st, nil
}
