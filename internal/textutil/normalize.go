// Package textutil holds the text helpers shared by the row parser and the
// free-text extractors: accent folding, whitespace cleanup and amount parsing.
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	multiSpaceRe = regexp.MustCompile(`[ \t]{2,}`)
	blankRunRe   = regexp.MustCompile(`\n{3,}`)
	trailingWSRe = regexp.MustCompile(`[ \t]+\n`)
)

// Fold lowercases s and strips diacritics so "En Tránsito" compares equal to
// "en transito". Transformers are built per call; they are not safe to share.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(out)
}

// ContainsAny reports whether the folded form of s contains any of the
// keywords. Keywords must already be folded (lowercase, no accents).
func ContainsAny(s string, keywords ...string) bool {
	if s == "" {
		return false
	}
	f := Fold(s)
	for _, k := range keywords {
		if k != "" && strings.Contains(f, k) {
			return true
		}
	}
	return false
}

// NormalizeNewlines converts CRLF and lone CR line endings to LF.
func NormalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// CleanBlock prepares a free-text block for label matching:
//  1. Line endings normalized to LF
//  2. Trailing spaces and tabs removed from every line
//  3. Runs of blank lines collapsed into a single blank line
func CleanBlock(s string) string {
	s = NormalizeNewlines(s)
	s = trailingWSRe.ReplaceAllString(s, "\n")
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// CollapseSpaces joins lines with single spaces and squeezes repeated blanks.
func CollapseSpaces(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return multiSpaceRe.ReplaceAllString(s, " ")
}

// legalSuffixes lists company-form suffixes common in CO and MX trade names.
var legalSuffixes = []string{
	" S.A.S.", " S.A.S", " SAS",
	" S.A. DE C.V.", " SA DE CV",
	" S. DE R.L. DE C.V.", " S DE RL DE CV",
	" LTDA.", " LTDA",
	" S.A.", " SA",
	" INC.", " INC",
	" LLC",
}

// NormalizeName standardizes a client name for stable identity:
// uppercase, accents removed, legal suffix stripped, spaces collapsed.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = strings.ToUpper(Fold(name))
	for _, suffix := range legalSuffixes {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}
	name = strings.NewReplacer(",", "", "\"", "", "'", "").Replace(name)
	return CollapseSpaces(name)
}
