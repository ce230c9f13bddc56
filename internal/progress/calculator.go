// Package progress scores the five lifecycle phases of an operation from its
// status columns, draws and releases, then checks that later phases do not
// run ahead of earlier ones.
package progress

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/sells-group/tradeflow/internal/country"
	"github.com/sells-group/tradeflow/internal/model"
	"github.com/sells-group/tradeflow/internal/textutil"
)

// Phase describes one lifecycle phase.
type Phase struct {
	Index  int
	Name   string
	Weight int
}

// Phases lists the five phases in order. Weights sum to 100.
var Phases = [model.PhaseCount]Phase{
	{1, "Cotización", 15},
	{2, "Documentación y cuota", 20},
	{3, "Procesamiento de pagos", 25},
	{4, "Compra internacional", 25},
	{5, "Cierre y liberación", 15},
}

// DefaultTolerance is the absolute currency difference under which releases
// are considered to reconcile with the declared total.
var DefaultTolerance = decimal.NewFromInt(100)

// DefaultDependencyGap is how many points a later phase may lead an earlier
// one before it is flagged.
const DefaultDependencyGap = 10

// statusCeiling caps how far a raw status can push phases 3 and 5.
const statusCeiling = 90

var (
	ninety  = decimal.NewFromInt(90)
	oneUnit = decimal.NewFromInt(1)
)

// Calculator computes OverallProgress values.
type Calculator struct {
	Tolerance     decimal.Decimal
	DependencyGap int
}

// New returns a Calculator with the given reconciliation tolerance.
func New(tolerance decimal.Decimal) *Calculator {
	return &Calculator{Tolerance: tolerance, DependencyGap: DefaultDependencyGap}
}

var defaultCalculator = New(DefaultTolerance)

// Calculate scores row with the default tolerance.
func Calculate(row model.RawRow, info *model.ParsedGeneralInfo, profile country.Profile) model.OverallProgress {
	return defaultCalculator.Calculate(row, info, profile)
}

// Calculate scores the five phases of row, flags dependency inconsistencies
// and aggregates the weighted total.
func (c *Calculator) Calculate(row model.RawRow, info *model.ParsedGeneralInfo, profile country.Profile) model.OverallProgress {
	if info == nil {
		info = &model.ParsedGeneralInfo{}
	}

	results := [model.PhaseCount]result{
		quotationRule.eval(row.Get(country.ColQuotation)),
		documentation(row, profile),
		payments(row, info),
		purchaseRule.eval(row.Get(country.ColPurchase)),
		c.closing(row, info),
	}

	out := model.OverallProgress{Phases: make([]model.PhaseProgress, 0, model.PhaseCount)}
	for i, r := range results {
		out.Phases = append(out.Phases, model.PhaseProgress{
			Phase:               Phases[i].Index,
			Name:                Phases[i].Name,
			Progress:            r.progress,
			Status:              r.status,
			Reason:              r.reason,
			DependencySatisfied: true,
		})
	}

	for _, inc := range FindInconsistencies(out.Phases, c.DependencyGap) {
		out.Phase(inc.Phase).DependencySatisfied = false
	}

	var weighted float64
	for i, p := range out.Phases {
		weighted += float64(Phases[i].Weight*p.Progress) / 100
		switch p.Status {
		case model.StatusCompleted:
			out.CompletedPhases++
		case model.StatusInProgress:
			if out.CurrentPhase == nil {
				n := p.Phase
				out.CurrentPhase = &n
			}
		case model.StatusPending:
			if out.NextPhase == nil {
				n := p.Phase
				out.NextPhase = &n
			}
		}
	}
	out.TotalProgress = int(math.Round(weighted))
	return out
}

// documentation combines the legal document column(s) with the operational
// fee column. Profiles with an extra legal column require it to be done too.
func documentation(row model.RawRow, profile country.Profile) result {
	legal := legalDocsRule.eval(row.Get(country.ColLegalDocs))
	if legal.status == model.StatusRejected {
		return legal
	}
	docsDone := legal.status == model.StatusCompleted
	docsProgress := legal.progress

	if profile.HasLegalDocColumn {
		extra := legalDocsRule.eval(row.Get(profile.LegalDocColumn))
		if extra.status == model.StatusRejected {
			return extra
		}
		docsDone = docsDone && extra.status == model.StatusCompleted
		docsProgress = min(docsProgress, extra.progress)
	}

	fee := row.Get(country.ColOperationalFee)
	if textutil.ContainsAny(fee, rejectedWords...) {
		return result{status: model.StatusRejected, reason: "operational fee rejected: " + fee}
	}
	feePaid := textutil.ContainsAny(fee, profile.FeeDoneKeywords...)
	_, feeInvoiced := feeRule.match(fee)

	switch {
	case docsDone && feePaid:
		return fromProgress(100, "legal documents approved and fee paid")
	case docsDone && feeInvoiced:
		return fromProgress(85, "legal documents approved, fee invoiced")
	case docsDone:
		return fromProgress(65, "legal documents approved, fee pending")
	case feePaid:
		return fromProgress(max(docsProgress, 35), "fee paid, legal documents pending")
	case docsProgress > 0:
		return fromProgress(docsProgress, legal.reason)
	default:
		return pending("no documentation status")
	}
}

// payments scores phase 3 from the draw ratio, lifted by the raw status.
func payments(row model.RawRow, info *model.ParsedGeneralInfo) result {
	draws := info.ValidDraws()
	if len(draws) == 0 {
		return pending("no valid draws")
	}

	status := row.Get(country.ColSupplierDraw)
	if textutil.ContainsAny(status, rejectedWords...) {
		return result{status: model.StatusRejected, reason: "supplier payment rejected: " + status}
	}

	sum := info.DrawTotal()
	total := info.TotalValue
	fig, full := 0, false
	if total.IsPositive() {
		ratio := sum.Div(total)
		if ratio.GreaterThanOrEqual(oneUnit) {
			fig, full = 95, true
		} else {
			fig = int(ratio.Mul(ninety).Round(0).IntPart())
		}
	}
	reason := fmt.Sprintf("draws cover %s of %s", sum.String(), total.String())

	if textutil.ContainsAny(status, drawStatusRule.done...) || allPaid(draws) {
		if full || !total.IsPositive() {
			return fromProgress(100, "supplier payment confirmed")
		}
		return fromProgress(max(fig, 95), "supplier payment confirmed, "+reason)
	}
	if t, ok := drawStatusRule.match(status); ok && min(t.progress, statusCeiling) > fig {
		return fromProgress(min(t.progress, statusCeiling), t.reason)
	}
	return fromProgress(fig, reason)
}

func allPaid(draws []model.Draw) bool {
	for _, d := range draws {
		if d.Status != model.ItemPaid {
			return false
		}
	}
	return len(draws) > 0
}

// closing scores phase 5 from the release ratio and the final invoice.
func (c *Calculator) closing(row model.RawRow, info *model.ParsedGeneralInfo) result {
	if len(info.Releases) == 0 {
		return pending("no releases")
	}

	invoice := row.Get(country.ColFinalInvoice)
	release := row.Get(country.ColRelease)
	if textutil.ContainsAny(invoice, rejectedWords...) || textutil.ContainsAny(release, rejectedWords...) {
		return result{status: model.StatusRejected, reason: "closing rejected"}
	}

	sum := info.ReleaseTotal()
	total := info.TotalValue
	fig := 0
	if total.IsPositive() {
		fig = min(int(sum.Div(total).Mul(ninety).Round(0).IntPart()), statusCeiling)
	}

	if sum.IsPositive() && total.Sub(sum).Abs().LessThanOrEqual(c.Tolerance) {
		return fromProgress(100, "releases reconcile with declared total")
	}
	if textutil.ContainsAny(invoice, finalInvoiceRule.done...) {
		return fromProgress(100, finalInvoiceRule.doneWhy)
	}

	reason := fmt.Sprintf("releases cover %s of %s", sum.String(), total.String())
	for _, src := range []struct {
		rule  statusRule
		value string
	}{{releaseStatusRule, release}, {finalInvoiceRule, invoice}} {
		if t, ok := src.rule.match(src.value); ok && min(t.progress, statusCeiling) > fig {
			fig = min(t.progress, statusCeiling)
			reason = t.reason
		}
	}
	return fromProgress(fig, reason)
}
