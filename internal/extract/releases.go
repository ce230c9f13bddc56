package extract

import (
	"regexp"
	"strconv"

	"github.com/sells-group/tradeflow/internal/model"
	"github.com/sells-group/tradeflow/internal/textutil"
)

// releaseRe matches the three-line release block with an optional status:
//
//	LIBERACIÓN 1
//	Capital: 50,000.00 USD
//	Fecha: 2024-03-15
//	Estado: Pagado
var releaseRe = regexp.MustCompile(
	`(?im)^[ \t]*[-•*]?[ \t]*LIBERACI[OÓ]N[ \t]*(?:N[O°º]\.?[ \t]*)?#?[ \t]*(\d+)[^\n]*\n` +
		`[ \t]*[-•*]?[ \t]*CAPITAL[ \t]*:[ \t]*([^\n]+)\n` +
		`[ \t]*[-•*]?[ \t]*FECHA[ \t]*:[ \t]*(\d{4}-\d{2}-\d{2})[^\n]*` +
		`(?:\n[ \t]*[-•*]?[ \t]*ESTADO[ \t]*:[ \t]*([^\n]+))?`,
)

var capitalRe = regexp.MustCompile(`(?im)CAPITAL[ \t]*:[ \t]*([^\n]+)`)

// extractReleases reads strict release blocks. When none match, at most one
// release is built from the first capital amount and first ISO date found.
func extractReleases(text, currency string) []model.Release {
	var out []model.Release
	for _, m := range releaseRe.FindAllStringSubmatch(text, -1) {
		seq, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		amount, ccy, ok := textutil.ParseAmount(m[2])
		if !ok {
			continue
		}
		if ccy == "" {
			ccy = currency
		}
		status := model.ItemPaid
		if m[4] != "" {
			status = ParseItemStatus(m[4], model.ItemPaid)
		}
		out = append(out, model.Release{
			Sequence: seq,
			Capital:  amount,
			Currency: ccy,
			Date:     m[3],
			Status:   status,
		})
	}
	if len(out) > 0 {
		return out
	}
	return relaxedRelease(text, currency)
}

func relaxedRelease(text, currency string) []model.Release {
	m := capitalRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	amount, ccy, ok := textutil.ParseAmount(m[1])
	if !ok || !amount.IsPositive() {
		return nil
	}
	date, ok := textutil.FirstISODate(text)
	if !ok {
		return nil
	}
	if ccy == "" {
		ccy = currency
	}
	return []model.Release{{
		Sequence: 1,
		Capital:  amount,
		Currency: ccy,
		Date:     date,
		Status:   model.ItemPaid,
	}}
}
