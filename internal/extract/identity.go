package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/sells-group/tradeflow/internal/textutil"
)

// NoTaxID is returned when no tax identifier can be recovered.
const NoTaxID = "SIN IDENTIFICACION"

// Identity is the client display name and national tax id of an operation.
type Identity struct {
	Client string `json:"client"`
	TaxID  string `json:"tax_id"`
}

var (
	identityLabels = []labelRule{
		{FieldClient, labelRe(`CLIENTE|RAZ[OÓ]N\s+SOCIAL`)},
		{FieldTaxID, regexp.MustCompile(`(?i)\b(?:N\.?\s?I\.?\s?T|R\.?\s?F\.?\s?C)\b\.?[ \t]*:?`)},
	}

	taxValueRe   = regexp.MustCompile(`(?i)^[ \t]*([A-Z0-9][A-Z0-9.\-]*)`)
	alnumRunRe   = regexp.MustCompile(`[A-Za-z0-9]{8,}`)
	taxLabelInRe = regexp.MustCompile(`(?i)\b(?:N\.?\s?I\.?\s?T|R\.?\s?F\.?\s?C)\b`)
)

// ParseIdentity parses a compound identity cell such as
// "- CLIENTE: ACME\n-NIT:900123456-7". It never fails: a missing client is
// "" and a missing tax id is NoTaxID.
func ParseIdentity(text string) Identity {
	text = textutil.CleanBlock(text)
	idx := indexLabels(text, identityLabels)

	id := Identity{}
	for i, h := range idx.hits {
		switch h.field {
		case FieldClient:
			if id.Client == "" {
				id.Client = firstLine(idx.valueAt(i))
			}
		case FieldTaxID:
			if id.TaxID == "" {
				id.TaxID = taxValue(idx.valueAt(i))
			}
		}
	}

	if id.Client == "" {
		id.Client = fallbackClient(text)
	}
	if id.TaxID == "" {
		id.TaxID = fallbackTaxID(text, id.Client)
	}
	if id.TaxID == "" {
		id.TaxID = NoTaxID
	}
	return id
}

func taxValue(v string) string {
	m := taxValueRe.FindStringSubmatch(v)
	if m == nil {
		return ""
	}
	val := strings.TrimRight(m[1], ".-")
	if !strings.ContainsFunc(val, unicode.IsDigit) {
		return ""
	}
	return strings.ToUpper(val)
}

// fallbackClient takes the first line that carries no tax label.
func fallbackClient(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if taxLabelInRe.MatchString(line) {
			continue
		}
		if c := cleanValue(line); c != "" {
			return c
		}
	}
	return ""
}

// fallbackTaxID returns the first run of 8+ alphanumerics that contains a
// digit and is not part of the client name.
func fallbackTaxID(text, client string) string {
	if client != "" {
		text = strings.Replace(text, client, " ", 1)
	}
	for _, run := range alnumRunRe.FindAllString(text, -1) {
		if strings.ContainsFunc(run, unicode.IsDigit) {
			return strings.ToUpper(run)
		}
	}
	return ""
}
