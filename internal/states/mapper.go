// Package states maps a source row to the six coarse process states used for
// reporting. The rules mirror the phase calculator loosely but are kept
// independent of it.
package states

import (
	"github.com/sells-group/tradeflow/internal/country"
	"github.com/sells-group/tradeflow/internal/model"
	"github.com/sells-group/tradeflow/internal/textutil"
)

// rule is a substring classifier over one status column. Keywords are folded.
type rule struct {
	rejected []string
	done     []string
	active   []string
}

func (r rule) classify(value string) model.Status {
	switch {
	case value == "":
		return model.StatusPending
	case textutil.ContainsAny(value, r.rejected...):
		return model.StatusRejected
	case textutil.ContainsAny(value, r.done...):
		return model.StatusCompleted
	case textutil.ContainsAny(value, r.active...):
		return model.StatusInProgress
	default:
		return model.StatusPending
	}
}

var rejected = []string{"rechazad", "cancelad", "anulad", "desistid"}

var (
	quotation = rule{
		rejected: rejected,
		done:     []string{"aprobad", "aceptad"},
		active:   []string{"enviad", "negociacion", "revision", "solicitad", "por aprobar", "elaboracion"},
	}
	legalDocs = rule{
		rejected: rejected,
		done:     []string{"aprobad", "complet", "validad"},
		active:   []string{"revision", "recibid", "en proceso", "parcial", "solicitad"},
	}
	purchase = rule{
		rejected: rejected,
		done:     []string{"entregad", "recibid", "nacionalizad", "finalizad"},
		active:   []string{"transito", "embarcad", "despachad", "aduana", "produccion", "fabricacion", "orden", "confirmad"},
	}
	supplierDraw = rule{
		rejected: rejected,
		done:     []string{"pagad", "girad", "realizad"},
		active:   []string{"en proceso", "tramite", "solicitad", "aprobad", "confirmad"},
	}
	finalInvoice = rule{
		rejected: rejected,
		done:     []string{"emitid", "generad", "enviad", "complet", "cerrad"},
		active:   []string{"elaboracion", "en proceso", "borrador"},
	}
)

// feeActive marks an operational fee that was billed but not yet settled.
var feeActive = []string{"enviad", "emitid", "factur", "cobro", "por pagar"}

// Map derives the six process states of row for the given profile.
func Map(row model.RawRow, profile country.Profile) model.EstadosProceso {
	return model.EstadosProceso{
		Cotizacion:          quotation.classify(row.Get(country.ColQuotation)),
		DocumentosLegales:   documentosLegales(row, profile),
		CuotaOperacional:    cuotaOperacional(row.Get(country.ColOperationalFee), profile),
		CompraInternacional: purchase.classify(row.Get(country.ColPurchase)),
		GiroProveedor:       supplierDraw.classify(row.Get(country.ColSupplierDraw)),
		FacturaFinal:        finalInvoice.classify(row.Get(country.ColFinalInvoice)),
	}
}

// documentosLegales is completed only when the legal column is done and, for
// profiles that carry it, the extra legal column is done as well.
func documentosLegales(row model.RawRow, profile country.Profile) model.Status {
	main := legalDocs.classify(row.Get(country.ColLegalDocs))
	if !profile.HasLegalDocColumn {
		return main
	}
	extra := legalDocs.classify(row.Get(profile.LegalDocColumn))
	switch {
	case main == model.StatusRejected || extra == model.StatusRejected:
		return model.StatusRejected
	case main == model.StatusCompleted && extra == model.StatusCompleted:
		return model.StatusCompleted
	case main == model.StatusPending && extra == model.StatusPending:
		return model.StatusPending
	default:
		return model.StatusInProgress
	}
}

func cuotaOperacional(value string, profile country.Profile) model.Status {
	switch {
	case value == "":
		return model.StatusPending
	case textutil.ContainsAny(value, rejected...):
		return model.StatusRejected
	case textutil.ContainsAny(value, profile.FeeDoneKeywords...):
		return model.StatusCompleted
	case textutil.ContainsAny(value, feeActive...):
		return model.StatusInProgress
	default:
		return model.StatusPending
	}
}
