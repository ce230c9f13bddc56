package progress

import (
	"github.com/sells-group/tradeflow/internal/model"
	"github.com/sells-group/tradeflow/internal/textutil"
)

// tier is one intermediate sub-state recognized in a status column.
type tier struct {
	progress int
	keywords []string
	reason   string
}

// statusRule scores a single status column. Keywords are folded
// (lowercase, no accents) and matched as substrings.
type statusRule struct {
	rejected []string
	done     []string
	doneWhy  string
	tiers    []tier // highest first
}

// result is the outcome of one phase rule.
type result struct {
	progress int
	status   model.Status
	reason   string
}

func pending(reason string) result {
	return result{progress: 0, status: model.StatusPending, reason: reason}
}

// fromProgress derives the status for a non-rejected score.
func fromProgress(p int, reason string) result {
	switch {
	case p >= 100:
		return result{progress: 100, status: model.StatusCompleted, reason: reason}
	case p > 0:
		return result{progress: p, status: model.StatusInProgress, reason: reason}
	default:
		return pending(reason)
	}
}

// eval scores value. Rejection is checked first, then done, then tiers.
func (r statusRule) eval(value string) result {
	if value == "" {
		return pending("no status")
	}
	if textutil.ContainsAny(value, r.rejected...) {
		return result{progress: 0, status: model.StatusRejected, reason: "rejected: " + value}
	}
	if textutil.ContainsAny(value, r.done...) {
		return fromProgress(100, r.doneWhy)
	}
	if t, ok := r.match(value); ok {
		return fromProgress(t.progress, t.reason)
	}
	return pending("unrecognized status: " + value)
}

// match returns the highest tier whose keywords appear in value.
func (r statusRule) match(value string) (tier, bool) {
	for _, t := range r.tiers {
		if textutil.ContainsAny(value, t.keywords...) {
			return t, true
		}
	}
	return tier{}, false
}

var rejectedWords = []string{"rechazad", "cancelad", "anulad", "desistid"}

var quotationRule = statusRule{
	rejected: rejectedWords,
	done:     []string{"aprobad", "aceptad"},
	doneWhy:  "quotation approved",
	tiers: []tier{
		{85, []string{"por aprobar", "en aprobacion", "pendiente de firma"}, "quotation awaiting approval"},
		{65, []string{"negociacion", "revision", "ajuste"}, "quotation under negotiation"},
		{35, []string{"enviad", "presentad"}, "quotation sent"},
		{15, []string{"solicitad", "borrador", "elaboracion"}, "quotation requested"},
	},
}

var legalDocsRule = statusRule{
	rejected: rejectedWords,
	done:     []string{"aprobad", "complet", "validad"},
	doneWhy:  "legal documents approved",
	tiers: []tier{
		{35, []string{"revision", "recibid", "en proceso", "parcial"}, "legal documents under review"},
		{15, []string{"solicitad", "pendiente"}, "legal documents requested"},
	},
}

var feeRule = statusRule{
	rejected: rejectedWords,
	tiers: []tier{
		{85, []string{"enviad", "emitid", "pendiente de pago", "por pagar"}, "operational fee invoiced"},
	},
}

var purchaseRule = statusRule{
	rejected: rejectedWords,
	done:     []string{"entregad", "recibid", "nacionalizad", "finalizad"},
	doneWhy:  "goods delivered",
	tiers: []tier{
		{85, []string{"aduana", "desaduan"}, "goods in customs"},
		{65, []string{"transito", "embarcad", "despachad"}, "goods in transit"},
		{35, []string{"produccion", "fabricacion"}, "goods in production"},
		{15, []string{"orden", "colocad", "confirmad"}, "purchase order placed"},
	},
}

// drawStatusRule scores the supplier draw column; its done keywords are the
// payment confirmation.
var drawStatusRule = statusRule{
	rejected: rejectedWords,
	done:     []string{"pagad", "confirmad", "realizad", "girad"},
	doneWhy:  "supplier payment confirmed",
	tiers: []tier{
		{65, []string{"en proceso", "tramite", "aprobad"}, "supplier payment in process"},
		{35, []string{"solicitad"}, "supplier payment requested"},
		{15, []string{"pendiente"}, "supplier payment pending"},
	},
}

var finalInvoiceRule = statusRule{
	rejected: rejectedWords,
	done:     []string{"emitid", "generad", "enviad", "cerrad", "complet"},
	doneWhy:  "final invoice issued",
	tiers: []tier{
		{35, []string{"elaboracion", "en proceso"}, "final invoice in preparation"},
		{15, []string{"pendiente"}, "final invoice pending"},
	},
}

var releaseStatusRule = statusRule{
	rejected: rejectedWords,
	tiers: []tier{
		{90, []string{"liberad"}, "capital released"},
		{65, []string{"en proceso", "tramite"}, "release in process"},
		{35, []string{"solicitad"}, "release requested"},
		{15, []string{"pendiente"}, "release pending"},
	},
}
