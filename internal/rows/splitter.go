package rows

import (
	"regexp"
	"strings"
)

// splitState is the state of the logical-row boundary detector.
type splitState int

const (
	// stateCollecting: an odd number of quotes has been seen since the row
	// began, so the next physical line belongs to the same logical row.
	stateCollecting splitState = iota
	// stateBoundaryCandidate: quote parity is even; the row closes only if
	// one of the auxiliary heuristics fires.
	stateBoundaryCandidate
	// stateClosed: the logical row is complete and can be emitted.
	stateClosed
)

func (s splitState) String() string {
	switch s {
	case stateCollecting:
		return "collecting"
	case stateBoundaryCandidate:
		return "boundary-candidate"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// logicalRow is one reassembled record plus the physical line it started on.
type logicalRow struct {
	text      string
	startLine int // 1-based
	// unterminated is set when input ended with an odd quote count.
	unterminated bool
}

// splitter reassembles physical lines into logical rows.
type splitter struct {
	delim  byte
	marker *regexp.Regexp

	state     splitState
	buf       []string
	quotes    int
	startLine int
}

func newSplitter(delim byte, marker *regexp.Regexp) *splitter {
	return &splitter{delim: delim, marker: marker}
}

// split walks every physical line through the state machine.
func (s *splitter) split(lines []string) []logicalRow {
	var out []logicalRow
	for i, line := range lines {
		if len(s.buf) == 0 {
			if strings.TrimSpace(line) == "" {
				continue
			}
			s.startLine = i + 1
			s.quotes = 0
		}

		s.buf = append(s.buf, line)
		s.quotes += strings.Count(line, `"`)

		var next *string
		if i+1 < len(lines) {
			next = &lines[i+1]
		}
		s.state = s.step(line, next)

		if s.state == stateClosed {
			out = append(out, logicalRow{text: strings.Join(s.buf, "\n"), startLine: s.startLine})
			s.buf = s.buf[:0]
			s.state = stateCollecting
		}
	}

	if len(s.buf) > 0 {
		out = append(out, logicalRow{
			text:         strings.Join(s.buf, "\n"),
			startLine:    s.startLine,
			unterminated: s.quotes%2 != 0,
		})
		s.buf = nil
	}
	return out
}

// step computes the next state after line has been appended to the buffer.
// next is the following physical line, or nil at end of input.
func (s *splitter) step(line string, next *string) splitState {
	if s.quotes%2 != 0 {
		return stateCollecting
	}
	// Parity is even: the row may end here.
	if s.boundaryFires(line, next) {
		return stateClosed
	}
	return stateBoundaryCandidate
}

// boundaryFires evaluates the auxiliary heuristics for a boundary candidate.
func (s *splitter) boundaryFires(line string, next *string) bool {
	switch {
	case next == nil:
		return true
	case s.quotes == 0:
		// Plain single-line record with no quoted content at all.
		return true
	case closesWithQuote(line, s.delim):
		return true
	case s.marker != nil && s.marker.MatchString(*next):
		return true
	default:
		return false
	}
}

// closesWithQuote reports whether the line ends on a closing quote, or its
// last quote is directly followed by the delimiter. Trailing empty columns
// (`1,"x",`) still close the row.
func closesWithQuote(line string, delim byte) bool {
	trimmed := strings.TrimRight(line, " \t")
	if strings.HasSuffix(trimmed, `"`) {
		return true
	}
	last := strings.LastIndexByte(trimmed, '"')
	if last < 0 || last+1 >= len(trimmed) {
		return false
	}
	return trimmed[last+1] == delim
}
