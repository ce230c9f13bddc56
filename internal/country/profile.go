// Package country describes the two supported jurisdictions and how a parsed
// source file is matched to one of them.
package country

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Column names shared by both source variants.
const (
	ColKey              = "Clave"
	ColIdentity         = "Datos Cliente"
	ColGeneralInfo      = "Información General"
	ColCreated          = "Creada"
	ColQuotation        = "Estado Cotización"
	ColLegalDocs        = "Estado Documentos Legales"
	ColOperationalFee   = "Estado Cuota Operacional"
	ColPurchase         = "Estado Compra Internacional"
	ColSupplierDraw     = "Estado Giro Proveedor"
	ColFinalInvoice     = "Estado Factura Final"
	ColRelease          = "Estado Liberación"
	ColCharterDocuments = "Estado Acta Constitutiva" // MX only
)

// MonthDay is a fixed-date holiday.
type MonthDay struct {
	Month time.Month `yaml:"month"`
	Day   int        `yaml:"day"`
}

// Profile is the static behavior descriptor of one jurisdiction.
type Profile struct {
	Code       string
	Name       string
	TaxIDLabel string

	// HasLegalDocColumn is true when the source variant carries an extra
	// legal-document status column that must also read "done".
	HasLegalDocColumn bool
	LegalDocColumn    string

	// FeeDoneKeywords are the folded substrings that mark the operational
	// fee as settled.
	FeeDoneKeywords []string

	Holidays []MonthDay
}

// Colombia is the profile for the NIT-based source variant.
var Colombia = Profile{
	Code:            "CO",
	Name:            "Colombia",
	TaxIDLabel:      "NIT",
	FeeDoneKeywords: []string{"pagad", "recibid"},
	Holidays: []MonthDay{
		{time.January, 1},
		{time.May, 1},
		{time.July, 20},
		{time.August, 7},
		{time.December, 8},
		{time.December, 25},
	},
}

// Mexico is the profile for the RFC-based source variant.
var Mexico = Profile{
	Code:              "MX",
	Name:              "México",
	TaxIDLabel:        "RFC",
	HasLegalDocColumn: true,
	LegalDocColumn:    ColCharterDocuments,
	FeeDoneKeywords:   []string{"pagad", "facturad"},
	Holidays: []MonthDay{
		{time.January, 1},
		{time.May, 1},
		{time.September, 16},
		{time.December, 25},
	},
}

// All lists the supported profiles.
func All() []Profile {
	return []Profile{Colombia, Mexico}
}

// ByCode returns the profile with the given ISO code (case-insensitive).
func ByCode(code string) (Profile, error) {
	for _, p := range All() {
		if strings.EqualFold(p.Code, strings.TrimSpace(code)) {
			return p, nil
		}
	}
	return Profile{}, eris.Errorf("country: unknown profile %q (valid: CO, MX)", code)
}

// Detect selects the profile for a parsed file by looking for the optional
// legal-document column in its header. Files without it are Colombian.
func Detect(fields []string) Profile {
	for _, f := range fields {
		if strings.EqualFold(strings.TrimSpace(f), Mexico.LegalDocColumn) {
			return Mexico
		}
	}
	return Colombia
}

// IsHoliday reports whether t falls on one of the profile's fixed holidays.
func (p Profile) IsHoliday(t time.Time) bool {
	for _, h := range p.Holidays {
		if t.Month() == h.Month && t.Day() == h.Day {
			return true
		}
	}
	return false
}
