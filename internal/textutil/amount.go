package textutil

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// amountRe finds the first monetary figure, with an optional currency code
	// before or after it. Handles "USD 100,000.00", "100.000,00 COP", "$ 45000".
	amountRe = regexp.MustCompile(`(?i)(US\$|USD|COP|MXN|EUR|CNY|RMB)?\s*\$?\s*(\d{1,3}(?:[.,' ]\d{3})+(?:[.,]\d{1,2})?|\d+(?:[.,]\d{1,2})?)\s*(USD|COP|MXN|EUR|CNY|RMB|D[OÓ]LARES|PESOS)?\b`)

	thousandsDotRe   = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)
	thousandsCommaRe = regexp.MustCompile(`^\d{1,3}(,\d{3})+$`)
)

// ParseAmount extracts the first monetary amount in s. It returns the value,
// the currency code found next to it (or "") and whether a number was found.
func ParseAmount(s string) (decimal.Decimal, string, bool) {
	m := amountRe.FindStringSubmatch(s)
	if m == nil {
		return decimal.Zero, "", false
	}
	v, err := decimal.NewFromString(normalizeNumber(m[2]))
	if err != nil {
		return decimal.Zero, "", false
	}
	ccy := currencyCode(m[1])
	if ccy == "" {
		ccy = currencyCode(m[3])
	}
	return v, ccy, true
}

// ParseAmountOr parses s as an amount, returning def when nothing parses.
func ParseAmountOr(s string, def decimal.Decimal) decimal.Decimal {
	v, _, ok := ParseAmount(s)
	if !ok {
		return def
	}
	return v
}

// normalizeNumber rewrites a localized number into plain "1234.56" form.
// When both separators appear, the last one is the decimal mark. A single
// separator followed by exactly three digits per group is a thousands mark.
func normalizeNumber(n string) string {
	n = strings.NewReplacer(" ", "", "'", "").Replace(n)
	dot := strings.LastIndex(n, ".")
	comma := strings.LastIndex(n, ",")

	switch {
	case dot >= 0 && comma >= 0:
		if dot > comma {
			return strings.ReplaceAll(n, ",", "")
		}
		n = strings.ReplaceAll(n, ".", "")
		return strings.Replace(n, ",", ".", 1)
	case comma >= 0:
		if thousandsCommaRe.MatchString(n) {
			return strings.ReplaceAll(n, ",", "")
		}
		return strings.Replace(n, ",", ".", 1)
	case dot >= 0:
		if thousandsDotRe.MatchString(n) {
			return strings.ReplaceAll(n, ".", "")
		}
		return n
	default:
		return n
	}
}

func currencyCode(raw string) string {
	switch Fold(strings.TrimSpace(raw)) {
	case "usd", "us$", "dolares":
		return "USD"
	case "cop":
		return "COP"
	case "mxn", "pesos":
		return "MXN"
	case "eur":
		return "EUR"
	case "cny", "rmb":
		return "CNY"
	default:
		return ""
	}
}
