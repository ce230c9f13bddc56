package extract

import (
	"fmt"

	"github.com/sells-group/tradeflow/internal/model"
	"github.com/sells-group/tradeflow/internal/textutil"
)

// drawFields are the labels that may appear inside one draw chunk.
var drawFields = map[string]bool{
	FieldRequestedAmount: true,
	FieldDrawNumber:      true,
	FieldDrawPercentage:  true,
	FieldDrawStatus:      true,
	FieldDueDate:         true,
}

// extractDraws splits text into chunks anchored at "VALOR SOLICITADO". A chunk
// ends at the next anchor, a release marker, a banking heading or the first
// label that does not belong to a draw. Banking labels that directly follow a
// draw end it; a chunk whose draw labels are interleaved with banking labels
// is skipped so account numbers are never read as draw data.
func extractDraws(text, currency string) ([]model.Draw, []model.Issue) {
	idx := indexLabels(text, generalLabels)

	var (
		draws  []model.Draw
		issues []model.Issue
	)
	for i := 0; i < len(idx.hits); i++ {
		if idx.hits[i].field != FieldRequestedAmount {
			continue
		}

		end, firstBank, lastDraw := i+1, -1, i
	scan:
		for end < len(idx.hits) {
			f := idx.hits[end].field
			if f == FieldRequestedAmount || f == fieldBoundary {
				break
			}
			switch {
			case drawFields[f]:
				lastDraw = end
			case bankingFields[f]:
				if firstBank < 0 {
					firstBank = end
				}
			default:
				break scan
			}
			end++
		}
		interleaved := firstBank >= 0 && lastDraw > firstBank
		if firstBank >= 0 && !interleaved {
			end = firstBank
		}

		chunk := &labelIndex{text: idx.text, hits: idx.hits[i:end]}
		if end < len(idx.hits) {
			// Keep the terminating label so the last value is bounded.
			chunk.hits = idx.hits[i : end+1]
		}
		n := len(draws) + len(issues) + 1

		if interleaved {
			issues = append(issues, model.Issue{
				Field:    FieldDraws,
				Severity: model.SeverityLow,
				Message:  fmt.Sprintf("draw block %d skipped: contains banking details", n),
			})
			i = end - 1
			continue
		}

		d, reason := buildDraw(chunk, currency)
		if reason != "" {
			issues = append(issues, model.Issue{
				Field:    FieldDraws,
				Severity: model.SeverityMedium,
				Message:  fmt.Sprintf("draw block %d skipped: %s", n, reason),
			})
		} else {
			draws = append(draws, d)
		}
		i = end - 1
	}
	return draws, issues
}

// buildDraw reads one chunk. It returns a non-empty reason when the chunk
// does not describe a valid draw.
func buildDraw(chunk *labelIndex, currency string) (model.Draw, string) {
	raw, _ := chunk.first(FieldRequestedAmount)
	amount, ccy, ok := textutil.ParseAmount(raw)
	if !ok || !amount.IsPositive() {
		return model.Draw{}, fmt.Sprintf("requested amount %q is not positive", raw)
	}

	label, _ := chunk.first(FieldDrawNumber)
	if label == "" {
		return model.Draw{}, "missing draw number"
	}
	if textutil.ContainsAny(label, bankingKeywords...) {
		return model.Draw{}, fmt.Sprintf("draw label %q looks like banking data", label)
	}

	if ccy == "" {
		ccy = currency
	}
	d := model.Draw{
		Amount:   amount,
		Currency: ccy,
		Label:    label,
		Status:   model.ItemPending,
	}
	d.PercentageLabel, _ = chunk.first(FieldDrawPercentage)
	if s, ok := chunk.first(FieldDrawStatus); ok {
		d.Status = ParseItemStatus(s, model.ItemPending)
	}
	if s, ok := chunk.first(FieldDueDate); ok {
		if due, parsed := textutil.ParseDate(s); parsed {
			d.DueDate = &due
		}
	}
	return d, ""
}

// ParseItemStatus maps a free-text status to an ItemStatus, returning def
// when nothing is recognized.
func ParseItemStatus(s string, def model.ItemStatus) model.ItemStatus {
	switch {
	case textutil.ContainsAny(s, "cancel", "anulad", "rechaz"):
		return model.ItemCancelled
	case textutil.ContainsAny(s, "pagad", "liberad", "complet", "realizad"):
		return model.ItemPaid
	case textutil.ContainsAny(s, "proces", "tramite", "en curso", "solicitad"):
		return model.ItemProcessing
	case textutil.ContainsAny(s, "pendiente"):
		return model.ItemPending
	default:
		return def
	}
}
