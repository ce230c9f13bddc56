package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RawRow maps a source column name to its raw string value.
type RawRow map[string]string

// Get returns the trimmed value of a column, or "" when the column is absent.
func (r RawRow) Get(col string) string {
	return strings.TrimSpace(r[col])
}

// Has reports whether the row carries the column at all (even if empty).
func (r RawRow) Has(col string) bool {
	_, ok := r[col]
	return ok
}

// Banking holds the beneficiary bank details found in the general info block.
type Banking struct {
	Beneficiary   string `json:"beneficiary"`
	BankName      string `json:"bank_name"`
	Address       string `json:"address"`
	AccountNumber string `json:"account_number"`
	Swift         string `json:"swift"`
}

// IsEmpty reports whether no banking field was recovered.
func (b Banking) IsEmpty() bool {
	return b == Banking{}
}

// Draw is a requested disbursement ("giro") toward the supplier.
type Draw struct {
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency,omitempty"`
	Label           string          `json:"label"`
	PercentageLabel string          `json:"percentage_label,omitempty"`
	Status          ItemStatus      `json:"status"`
	DueDate         *time.Time      `json:"due_date,omitempty"`
}

// Valid reports whether the draw carries a positive amount.
func (d Draw) Valid() bool {
	return d.Amount.IsPositive()
}

// Release is a capital amount released against the operation ("liberación").
type Release struct {
	Sequence int             `json:"sequence"`
	Capital  decimal.Decimal `json:"capital"`
	Currency string          `json:"currency,omitempty"`
	Date     string          `json:"date"` // YYYY-MM-DD
	Status   ItemStatus      `json:"status"`
	DueDate  *time.Time      `json:"due_date,omitempty"`
}

// ParsedGeneralInfo is the structured view of one free-text general info block.
type ParsedGeneralInfo struct {
	Client          string          `json:"client"`
	ImporterCountry string          `json:"importer_country"`
	ExporterCountry string          `json:"exporter_country"`
	TotalValue      decimal.Decimal `json:"total_value"`
	Currency        string          `json:"currency"`
	PaymentTerms    string          `json:"payment_terms"`
	IncotermBuy     string          `json:"incoterm_buy"`
	IncotermSell    string          `json:"incoterm_sell"`
	Banking         Banking         `json:"banking"`
	Draws           []Draw          `json:"draws"`
	Releases        []Release       `json:"releases"`
}

// DrawTotal sums the amounts of all valid draws.
func (p *ParsedGeneralInfo) DrawTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, d := range p.Draws {
		if d.Valid() {
			sum = sum.Add(d.Amount)
		}
	}
	return sum
}

// ReleaseTotal sums the capital of all releases.
func (p *ParsedGeneralInfo) ReleaseTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, r := range p.Releases {
		sum = sum.Add(r.Capital)
	}
	return sum
}

// ValidDraws returns the draws with a positive amount, in text order.
func (p *ParsedGeneralInfo) ValidDraws() []Draw {
	out := make([]Draw, 0, len(p.Draws))
	for _, d := range p.Draws {
		if d.Valid() {
			out = append(out, d)
		}
	}
	return out
}

// EstadosProceso holds the six coarse process states used for reporting.
type EstadosProceso struct {
	Cotizacion          Status `json:"cotizacion"`
	DocumentosLegales   Status `json:"documentos_legales"`
	CuotaOperacional    Status `json:"cuota_operacional"`
	CompraInternacional Status `json:"compra_internacional"`
	GiroProveedor       Status `json:"giro_proveedor"`
	FacturaFinal        Status `json:"factura_final"`
}

// DateRange is the synthesized calendar for one phase.
type DateRange struct {
	Phase     int        `json:"phase"`
	Start     time.Time  `json:"start"`
	Deadline  time.Time  `json:"deadline"`
	Estimated time.Time  `json:"estimated"`
	Actual    *time.Time `json:"actual,omitempty"`
}

// OperationDetail is the fully derived view of one source row.
type OperationDetail struct {
	ID        string `json:"id"`
	SourceKey string `json:"source_key"`
	RowIndex  int    `json:"row_index"`
	Country   string `json:"country"`
	Client    string `json:"client"`
	TaxID     string `json:"tax_id"`

	ImporterCountry string          `json:"importer_country"`
	ExporterCountry string          `json:"exporter_country"`
	TotalValue      decimal.Decimal `json:"total_value"`
	Currency        string          `json:"currency"`
	PaymentTerms    string          `json:"payment_terms"`
	IncotermBuy     string          `json:"incoterm_buy"`
	IncotermSell    string          `json:"incoterm_sell"`
	Banking         Banking         `json:"banking"`

	Estados          EstadosProceso   `json:"estados"`
	Draws            []Draw           `json:"draws"`
	Releases         []Release        `json:"releases"`
	Progress         OverallProgress  `json:"progress"`
	Validation       ValidationResult `json:"validation"`
	Timeline         []DateRange      `json:"timeline"`
	Alerts           []Alert          `json:"alerts"`
	ExtractionIssues []Issue          `json:"extraction_issues,omitempty"`
	DerivedAt        time.Time        `json:"derived_at"`
}
