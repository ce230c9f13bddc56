package textutil

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"En Tránsito", "en transito"},
		{"LIBERACIÓN", "liberacion"},
		{"Número de Cuenta", "numero de cuenta"},
		{"ñandú", "nandu"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestContainsAny(t *testing.T) {
	assert.True(t, ContainsAny("Cotización APROBADA", "aprobad"))
	assert.True(t, ContainsAny("En tránsito", "rechaz", "transito"))
	assert.False(t, ContainsAny("", "aprobad"))
	assert.False(t, ContainsAny("pendiente", "aprobad", ""))
}

func TestCleanBlock(t *testing.T) {
	in := "CLIENTE: ACME  \r\n\r\n\r\n\r\nPAÍS: CO\t\rFIN"
	assert.Equal(t, "CLIENTE: ACME\n\nPAÍS: CO\nFIN", CleanBlock(in))
}

func TestCollapseSpaces(t *testing.T) {
	assert.Equal(t, "Calle 1 Bogotá", CollapseSpaces("  Calle 1\n   Bogotá  "))
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme S.A.S.", "ACME"},
		{"Acme SAS", "ACME"},
		{"Importadora del Norte S.A. de C.V.", "IMPORTADORA DEL NORTE"},
		{"  Café   Andino Ltda ", "CAFE ANDINO"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		ccy    string
		wantOK bool
	}{
		{"us format with code", "30,000.00 USD", "30000", "USD", true},
		{"co format", "100.000,50 COP", "100000.5", "COP", true},
		{"leading code", "USD 1,500", "1500", "USD", true},
		{"plain", "100000", "100000", "", true},
		{"decimal comma", "12,5", "12.5", "", true},
		{"thousands dot", "1.500", "1500", "", true},
		{"two decimals dot", "1.50", "1.5", "", true},
		{"dollar sign", "$ 45.000", "45000", "", true},
		{"spanish currency word", "2.000 dólares", "2000", "USD", true},
		{"no number", "sin valor", "0", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ccy, ok := ParseAmount(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
			assert.Equal(t, tt.ccy, ccy)
		})
	}
}

func TestParseAmountOr(t *testing.T) {
	def := decimal.NewFromInt(-1)
	assert.True(t, ParseAmountOr("n/a", def).Equal(def))
	assert.True(t, ParseAmountOr("2,500.75", def).Equal(decimal.RequireFromString("2500.75")))
}
