package states

import "github.com/sells-group/tradeflow/internal/model"

// State names used as Summary keys.
const (
	NameCotizacion          = "cotizacion"
	NameDocumentosLegales   = "documentos_legales"
	NameCuotaOperacional    = "cuota_operacional"
	NameCompraInternacional = "compra_internacional"
	NameGiroProveedor       = "giro_proveedor"
	NameFacturaFinal        = "factura_final"
)

// Names lists the six states in reporting order.
var Names = []string{
	NameCotizacion,
	NameDocumentosLegales,
	NameCuotaOperacional,
	NameCompraInternacional,
	NameGiroProveedor,
	NameFacturaFinal,
}

// Summary counts operations per state and status.
type Summary map[string]map[model.Status]int

// Tally aggregates the process states of many operations.
func Tally(all []model.EstadosProceso) Summary {
	s := make(Summary, len(Names))
	for _, n := range Names {
		s[n] = map[model.Status]int{}
	}
	for _, e := range all {
		s[NameCotizacion][e.Cotizacion]++
		s[NameDocumentosLegales][e.DocumentosLegales]++
		s[NameCuotaOperacional][e.CuotaOperacional]++
		s[NameCompraInternacional][e.CompraInternacional]++
		s[NameGiroProveedor][e.GiroProveedor]++
		s[NameFacturaFinal][e.FacturaFinal]++
	}
	return s
}
