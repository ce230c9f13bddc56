// Package extract pulls structured trade-finance fields out of the free-text
// blocks stored in a source row. All rules are label anchored: a value runs
// from its label to the next known label or the end of the text.
package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/sells-group/tradeflow/internal/textutil"
)

// Field keys used for labels and issues.
const (
	FieldClient          = "cliente"
	FieldImporterCountry = "pais_importador"
	FieldExporterCountry = "pais_exportador"
	FieldTotalValue      = "valor_total"
	FieldCurrency        = "moneda"
	FieldPaymentTerms    = "terminos_pago"
	FieldIncotermBuy     = "incoterm_compra"
	FieldIncotermSell    = "incoterm_venta"
	FieldBeneficiary     = "beneficiario"
	FieldBankName        = "banco"
	FieldBankAddress     = "direccion_banco"
	FieldAccountNumber   = "numero_cuenta"
	FieldSwift           = "swift"
	FieldRequestedAmount = "valor_solicitado"
	FieldDrawNumber      = "numero_giro"
	FieldDrawPercentage  = "porcentaje_giro"
	FieldDrawStatus      = "estado_giro"
	FieldDueDate         = "fecha_vencimiento"
	FieldTaxID           = "identificacion"
	FieldDraws           = "giros"
	FieldReleases        = "liberaciones"

	// fieldBoundary marks headings that end a value without carrying one.
	fieldBoundary = "_boundary"
)

type labelRule struct {
	field string
	re    *regexp.Regexp
}

func labelRe(fragment string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + fragment + `)[ \t]*:`)
}

// generalLabels are the labels recognized in a general info block. Order only
// matters for ties at the same offset; the longer match wins.
var generalLabels = []labelRule{
	{FieldClient, labelRe(`CLIENTE`)},
	{FieldImporterCountry, labelRe(`PA[IÍ]S\s+(?:DE\s+)?IMPORTA(?:DOR|CI[OÓ]N)`)},
	{FieldExporterCountry, labelRe(`PA[IÍ]S\s+(?:DE\s+)?EXPORTA(?:DOR|CI[OÓ]N)`)},
	{FieldTotalValue, labelRe(`VALOR\s+TOTAL(?:\s+DE\s+(?:LA\s+)?COMPRA)?`)},
	{FieldCurrency, labelRe(`MONEDA`)},
	{FieldPaymentTerms, labelRe(`(?:T[EÉ]RMINOS|CONDICIONES)\s+DE\s+PAGO`)},
	{FieldIncotermBuy, labelRe(`INCOTERMS?\s+(?:DE\s+)?COMPRA`)},
	{FieldIncotermSell, labelRe(`INCOTERMS?\s+(?:DE\s+)?VENTA`)},
	{FieldBeneficiary, labelRe(`BENEFICIARIO`)},
	{FieldBankAddress, labelRe(`DIRECCI[OÓ]N\s+DEL\s+BANCO`)},
	{FieldBankName, labelRe(`(?:NOMBRE\s+DEL\s+)?BANCO`)},
	{FieldAccountNumber, labelRe(`N[UÚ]MERO\s+DE\s+(?:LA\s+)?CUENTA`)},
	{FieldSwift, labelRe(`(?:C[OÓ]DIGO\s+)?SWIFT(?:\s*/\s*BIC)?`)},
	{FieldRequestedAmount, labelRe(`VALOR\s+SOLICITADO`)},
	{FieldDrawNumber, labelRe(`N[UÚ]MERO\s+DEL?\s+GIRO`)},
	{FieldDrawPercentage, labelRe(`PORCENTAJE\s+(?:DEL?\s+)?GIRO`)},
	{FieldDrawStatus, labelRe(`ESTADO\s+DEL?\s+GIRO`)},
	{FieldDueDate, labelRe(`FECHA\s+DE\s+VENCIMIENTO`)},
	{FieldTaxID, labelRe(`N\.?\s?I\.?\s?T\.?|R\.?\s?F\.?\s?C\.?`)},
	{fieldBoundary, releaseMarkerRe},
	{fieldBoundary, bankingHeadingRe},
}

var (
	releaseMarkerRe  = regexp.MustCompile(`(?im)^[ \t]*[-•*]?[ \t]*LIBERACI[OÓ]N\b`)
	bankingHeadingRe = regexp.MustCompile(`(?im)^[ \t]*[-•*]?[ \t]*DATOS[ \t]+BANCARIOS\b`)
)

// bankingFields are the labels that identify the banking section.
var bankingFields = map[string]bool{
	FieldBeneficiary:   true,
	FieldBankName:      true,
	FieldBankAddress:   true,
	FieldAccountNumber: true,
	FieldSwift:         true,
}

// bankingKeywords are folded words that disqualify a draw label.
var bankingKeywords = []string{"banco", "cuenta", "swift", "beneficiario", "iban", "aba"}

// labelHit is one located label in a text.
type labelHit struct {
	field string
	start int // label start
	end   int // value start
}

// labelIndex is the ordered, non-overlapping list of labels in a text.
type labelIndex struct {
	text string
	hits []labelHit
}

// indexLabels locates every rule in text. Overlapping matches keep the one
// that starts first, then the longest ("DIRECCIÓN DEL BANCO:" over "BANCO:").
func indexLabels(text string, rules []labelRule) *labelIndex {
	var all []labelHit
	for _, r := range rules {
		for _, m := range r.re.FindAllStringIndex(text, -1) {
			all = append(all, labelHit{field: r.field, start: m[0], end: m[1]})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].start != all[j].start {
			return all[i].start < all[j].start
		}
		return all[i].end > all[j].end
	})

	idx := &labelIndex{text: text}
	lastEnd := -1
	for _, h := range all {
		if h.start < lastEnd {
			continue
		}
		idx.hits = append(idx.hits, h)
		lastEnd = h.end
	}
	return idx
}

// valueAt returns the raw text between hit i and the next label.
func (x *labelIndex) valueAt(i int) string {
	end := len(x.text)
	if i+1 < len(x.hits) {
		end = x.hits[i+1].start
	}
	return x.text[x.hits[i].end:end]
}

// first returns the cleaned value of the first occurrence of field.
func (x *labelIndex) first(field string) (string, bool) {
	for i, h := range x.hits {
		if h.field == field {
			return cleanValue(x.valueAt(i)), true
		}
	}
	return "", false
}

// has reports whether any of the fields occur in the index.
func (x *labelIndex) has(fields map[string]bool) bool {
	for _, h := range x.hits {
		if fields[h.field] {
			return true
		}
	}
	return false
}

// cleanValue trims bullets and collapses whitespace in a sliced value.
func cleanValue(v string) string {
	v = strings.Trim(v, " \t\n-•*")
	return textutil.CollapseSpaces(v)
}

// firstLine returns the first non-empty line of a sliced value, cleaned.
func firstLine(v string) string {
	for _, line := range strings.Split(v, "\n") {
		if c := cleanValue(line); c != "" {
			return c
		}
	}
	return ""
}
