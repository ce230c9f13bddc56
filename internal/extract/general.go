package extract

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sells-group/tradeflow/internal/model"
	"github.com/sells-group/tradeflow/internal/textutil"
)

// DefaultCurrency is used when no currency can be read from the block.
const DefaultCurrency = "USD"

// GeneralInfo extracts a ParsedGeneralInfo from a general info block. It never
// fails: missing fields are zero-valued and reported as issues.
func GeneralInfo(text string) (*model.ParsedGeneralInfo, []model.Issue) {
	text = textutil.CleanBlock(text)
	idx := indexLabels(text, generalLabels)

	info := &model.ParsedGeneralInfo{
		TotalValue: decimal.Zero,
		Currency:   DefaultCurrency,
	}
	var issues []model.Issue
	miss := func(field string, sev model.Severity, msg string) {
		issues = append(issues, model.Issue{Field: field, Severity: sev, Message: msg})
	}

	info.Client = stringField(idx, FieldClient)
	if info.Client == "" {
		miss(FieldClient, model.SeverityHigh, "client not found")
	}
	info.ImporterCountry = stringField(idx, FieldImporterCountry)
	if info.ImporterCountry == "" {
		miss(FieldImporterCountry, model.SeverityMedium, "importer country not found")
	}
	info.ExporterCountry = stringField(idx, FieldExporterCountry)
	if info.ExporterCountry == "" {
		miss(FieldExporterCountry, model.SeverityMedium, "exporter country not found")
	}

	totalCcy := ""
	if raw, ok := idx.first(FieldTotalValue); ok {
		v, ccy, parsed := textutil.ParseAmount(raw)
		switch {
		case !parsed:
			miss(FieldTotalValue, model.SeverityHigh, fmt.Sprintf("total value %q is not a number", raw))
		case v.IsNegative():
			miss(FieldTotalValue, model.SeverityHigh, "total value is negative")
		default:
			info.TotalValue = v
			totalCcy = ccy
		}
	} else {
		miss(FieldTotalValue, model.SeverityHigh, "total value not found")
	}

	info.Currency = resolveCurrency(idx, totalCcy, &issues)

	info.PaymentTerms = stringField(idx, FieldPaymentTerms)
	if info.PaymentTerms == "" {
		miss(FieldPaymentTerms, model.SeverityLow, "payment terms not found")
	}
	info.IncotermBuy = incoterm(stringField(idx, FieldIncotermBuy))
	info.IncotermSell = incoterm(stringField(idx, FieldIncotermSell))

	info.Banking = model.Banking{
		Beneficiary:   stringField(idx, FieldBeneficiary),
		BankName:      stringField(idx, FieldBankName),
		Address:       stringField(idx, FieldBankAddress),
		AccountNumber: stringField(idx, FieldAccountNumber),
		Swift:         strings.ToUpper(stringField(idx, FieldSwift)),
	}

	draws, drawIssues := extractDraws(text, info.Currency)
	info.Draws = draws
	issues = append(issues, drawIssues...)

	info.Releases = extractReleases(text, info.Currency)

	return info, issues
}

func stringField(idx *labelIndex, field string) string {
	v, _ := idx.first(field)
	return v
}

// incoterm keeps the leading code of a value such as "FOB Shanghai".
func incoterm(v string) string {
	f := strings.Fields(v)
	if len(f) == 0 {
		return ""
	}
	return strings.ToUpper(strings.Trim(f[0], ".,;()"))
}

// resolveCurrency prefers an explicit MONEDA label, then the code next to
// the total, then DefaultCurrency.
func resolveCurrency(idx *labelIndex, totalCcy string, issues *[]model.Issue) string {
	if raw, ok := idx.first(FieldCurrency); ok && raw != "" {
		if code := currencyFromLabel(raw); code != "" {
			return code
		}
		*issues = append(*issues, model.Issue{
			Field:    FieldCurrency,
			Severity: model.SeverityLow,
			Message:  fmt.Sprintf("unrecognized currency %q, using %s", raw, DefaultCurrency),
		})
		return DefaultCurrency
	}
	if totalCcy != "" {
		return totalCcy
	}
	return DefaultCurrency
}

// currencyFromLabel reads "USD", "Dólares americanos", "COP - pesos" etc.
func currencyFromLabel(raw string) string {
	f := textutil.Fold(raw)
	for _, tok := range strings.FieldsFunc(f, func(r rune) bool {
		return r == ' ' || r == '-' || r == '(' || r == ')' || r == '/' || r == ','
	}) {
		switch tok {
		case "usd", "us$", "dolar", "dolares":
			return "USD"
		case "cop":
			return "COP"
		case "mxn":
			return "MXN"
		case "eur", "euro", "euros":
			return "EUR"
		case "cny", "rmb", "yuan", "yuanes":
			return "CNY"
		}
	}
	switch {
	case strings.Contains(f, "colombian"):
		return "COP"
	case strings.Contains(f, "mexican"):
		return "MXN"
	case len(strings.TrimSpace(raw)) == 3:
		return strings.ToUpper(strings.TrimSpace(raw))
	}
	return ""
}
