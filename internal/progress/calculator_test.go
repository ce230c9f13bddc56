package progress

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/tradeflow/internal/country"
	"github.com/sells-group/tradeflow/internal/model"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func draw(amount int64, status model.ItemStatus) model.Draw {
	return model.Draw{Amount: dec(amount), Label: "Giro", Status: status}
}

func release(capital int64) model.Release {
	return model.Release{Sequence: 1, Capital: dec(capital), Date: "2024-05-01", Status: model.ItemPaid}
}

func TestCalculate_NoDrawsNoReleases(t *testing.T) {
	row := model.RawRow{
		country.ColSupplierDraw: "Pagado",
		country.ColFinalInvoice: "Emitida",
		country.ColRelease:      "Liberado",
	}
	info := &model.ParsedGeneralInfo{TotalValue: dec(100000)}

	got := Calculate(row, info, country.Colombia)
	for _, n := range []int{3, 5} {
		p := got.Phase(n)
		require.NotNil(t, p)
		assert.Equal(t, 0, p.Progress, "phase %d", n)
		assert.Equal(t, model.StatusPending, p.Status, "phase %d", n)
	}
}

func TestCalculate_NilInfo(t *testing.T) {
	got := Calculate(model.RawRow{}, nil, country.Colombia)
	require.Len(t, got.Phases, model.PhaseCount)
	assert.Equal(t, 0, got.TotalProgress)
	assert.Nil(t, got.CurrentPhase)
	require.NotNil(t, got.NextPhase)
	assert.Equal(t, 1, *got.NextPhase)
}

func TestCalculate_DoneSubstringIgnoresOtherPhases(t *testing.T) {
	row := model.RawRow{country.ColPurchase: "Mercancía ENTREGADA en bodega"}
	got := Calculate(row, &model.ParsedGeneralInfo{}, country.Colombia)

	p4 := got.Phase(4)
	assert.Equal(t, 100, p4.Progress)
	assert.Equal(t, model.StatusCompleted, p4.Status)
	assert.False(t, p4.DependencySatisfied)
	assert.True(t, got.Phase(1).DependencySatisfied)
}

func TestCalculate_PaymentRatio(t *testing.T) {
	info := &model.ParsedGeneralInfo{
		TotalValue: dec(100000),
		Draws:      []model.Draw{draw(30000, model.ItemPending), draw(70000, model.ItemPending)},
	}

	tests := []struct {
		name   string
		status string
		want   int
		state  model.Status
	}{
		{"ratio alone", "", 95, model.StatusInProgress},
		{"status cannot lower", "Pendiente", 95, model.StatusInProgress},
		{"confirmed", "Pagado al proveedor", 100, model.StatusCompleted},
		{"rejected", "Cancelado", 0, model.StatusRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := model.RawRow{country.ColSupplierDraw: tt.status}
			p := phaseOf(Calculate(row, info, country.Colombia), 3)
			assert.Equal(t, tt.want, p.Progress)
			assert.Equal(t, tt.state, p.Status)
			assert.GreaterOrEqual(t, p.Progress, 0)
		})
	}
}

func TestCalculate_PartialPayment(t *testing.T) {
	info := &model.ParsedGeneralInfo{
		TotalValue: dec(100000),
		Draws:      []model.Draw{draw(30000, model.ItemPending)},
	}

	tests := []struct {
		name   string
		status string
		draws  []model.Draw
		want   int
	}{
		{"ratio", "", nil, 27},
		{"status raises", "En trámite", nil, 65},
		{"status lower than ratio", "Pendiente", nil, 27},
		{"confirmation below full ratio", "Girado", nil, 95},
		{"all draws paid", "", []model.Draw{draw(30000, model.ItemPaid)}, 95},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := *info
			if tt.draws != nil {
				in.Draws = tt.draws
			}
			p := phaseOf(Calculate(model.RawRow{country.ColSupplierDraw: tt.status}, &in, country.Colombia), 3)
			assert.Equal(t, tt.want, p.Progress)
			assert.Equal(t, model.StatusInProgress, p.Status)
		})
	}
}

func TestCalculate_PaymentZeroTotal(t *testing.T) {
	info := &model.ParsedGeneralInfo{Draws: []model.Draw{draw(500, model.ItemPending)}}
	p := phaseOf(Calculate(model.RawRow{country.ColSupplierDraw: "Confirmado"}, info, country.Colombia), 3)
	assert.Equal(t, 100, p.Progress)
}

func TestCalculate_Closing(t *testing.T) {
	tests := []struct {
		name     string
		releases []model.Release
		invoice  string
		status   string
		want     int
		state    model.Status
	}{
		{"exact reconciliation", []model.Release{release(100000)}, "", "", 100, model.StatusCompleted},
		{"within tolerance", []model.Release{release(60000), release(39950)}, "", "", 100, model.StatusCompleted},
		{"half released", []model.Release{release(50000)}, "", "", 45, model.StatusInProgress},
		{"status raises to ceiling", []model.Release{release(50000)}, "", "Liberado", 90, model.StatusInProgress},
		{"invoice done", []model.Release{release(50000)}, "Factura emitida", "", 100, model.StatusCompleted},
		{"over released capped", []model.Release{release(150000)}, "", "", 90, model.StatusInProgress},
		{"rejected", []model.Release{release(50000)}, "Anulada", "", 0, model.StatusRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := &model.ParsedGeneralInfo{TotalValue: dec(100000), Releases: tt.releases}
			row := model.RawRow{country.ColFinalInvoice: tt.invoice, country.ColRelease: tt.status}
			p := phaseOf(Calculate(row, info, country.Colombia), 5)
			assert.Equal(t, tt.want, p.Progress)
			assert.Equal(t, tt.state, p.Status)
		})
	}
}

func TestCalculate_CustomTolerance(t *testing.T) {
	info := &model.ParsedGeneralInfo{TotalValue: dec(100000), Releases: []model.Release{release(99000)}}
	assert.Equal(t, 89, phaseOf(Calculate(model.RawRow{}, info, country.Colombia), 5).Progress)
	assert.Equal(t, 100, phaseOf(New(dec(1000)).Calculate(model.RawRow{}, info, country.Colombia), 5).Progress)
}

func TestCalculate_Documentation(t *testing.T) {
	tests := []struct {
		name    string
		profile country.Profile
		row     model.RawRow
		want    int
		state   model.Status
	}{
		{
			"co docs and fee", country.Colombia,
			model.RawRow{country.ColLegalDocs: "Aprobados", country.ColOperationalFee: "Pagada"},
			100, model.StatusCompleted,
		},
		{
			"co invoiced fee is not paid", country.Colombia,
			model.RawRow{country.ColLegalDocs: "Aprobados", country.ColOperationalFee: "Facturada"},
			65, model.StatusInProgress,
		},
		{
			"co docs done fee unpaid", country.Colombia,
			model.RawRow{country.ColLegalDocs: "Aprobado"},
			65, model.StatusInProgress,
		},
		{
			"mx invoiced fee is paid", country.Mexico,
			model.RawRow{country.ColLegalDocs: "Aprobados", country.ColOperationalFee: "Facturada", country.ColCharterDocuments: "Validada"},
			100, model.StatusCompleted,
		},
		{
			"mx missing charter", country.Mexico,
			model.RawRow{country.ColLegalDocs: "Aprobados", country.ColOperationalFee: "Pagada"},
			35, model.StatusInProgress,
		},
		{
			"fee sent", country.Colombia,
			model.RawRow{country.ColLegalDocs: "Completos", country.ColOperationalFee: "Cuenta de cobro enviada"},
			85, model.StatusInProgress,
		},
		{
			"docs under review", country.Colombia,
			model.RawRow{country.ColLegalDocs: "En revisión"},
			35, model.StatusInProgress,
		},
		{
			"docs rejected", country.Colombia,
			model.RawRow{country.ColLegalDocs: "Rechazados", country.ColOperationalFee: "Pagada"},
			0, model.StatusRejected,
		},
		{"nothing", country.Colombia, model.RawRow{}, 0, model.StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := phaseOf(Calculate(tt.row, nil, tt.profile), 2)
			assert.Equal(t, tt.want, p.Progress)
			assert.Equal(t, tt.state, p.Status)
		})
	}
}

func TestCalculate_QuotationTiers(t *testing.T) {
	tests := []struct {
		status string
		want   int
		state  model.Status
	}{
		{"Aprobada", 100, model.StatusCompleted},
		{"Por aprobar", 85, model.StatusInProgress},
		{"En negociación", 65, model.StatusInProgress},
		{"Enviada al cliente", 35, model.StatusInProgress},
		{"Solicitada", 15, model.StatusInProgress},
		{"Rechazada", 0, model.StatusRejected},
		{"???", 0, model.StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			p := phaseOf(Calculate(model.RawRow{country.ColQuotation: tt.status}, nil, country.Colombia), 1)
			assert.Equal(t, tt.want, p.Progress)
			assert.Equal(t, tt.state, p.Status)
		})
	}
}

func TestCalculate_Aggregate(t *testing.T) {
	row := model.RawRow{
		country.ColQuotation:      "Aprobada",
		country.ColLegalDocs:      "Aprobados",
		country.ColOperationalFee: "Pendiente",
	}
	info := &model.ParsedGeneralInfo{
		TotalValue: dec(100000),
		Draws:      []model.Draw{draw(30000, model.ItemPending), draw(70000, model.ItemPending)},
	}

	got := Calculate(row, info, country.Colombia)
	// 15 + 20*0.65 + 25*0.95 = 51.75
	assert.Equal(t, 52, got.TotalProgress)
	assert.Equal(t, 1, got.CompletedPhases)
	require.NotNil(t, got.CurrentPhase)
	assert.Equal(t, 2, *got.CurrentPhase)
	require.NotNil(t, got.NextPhase)
	assert.Equal(t, 4, *got.NextPhase)

	// Phase 3 at 95 leads phase 2 at 65 by more than the gap.
	assert.False(t, got.Phase(3).DependencySatisfied)
	assert.Equal(t, 95, got.Phase(3).Progress)
}

func TestCalculate_AllComplete(t *testing.T) {
	row := model.RawRow{
		country.ColQuotation:      "Aprobada",
		country.ColLegalDocs:      "Aprobados",
		country.ColOperationalFee: "Pagada",
		country.ColSupplierDraw:   "Pagado",
		country.ColPurchase:       "Entregado",
	}
	info := &model.ParsedGeneralInfo{
		TotalValue: dec(100000),
		Draws:      []model.Draw{draw(100000, model.ItemPaid)},
		Releases:   []model.Release{release(100000)},
	}
	got := Calculate(row, info, country.Colombia)
	assert.Equal(t, 100, got.TotalProgress)
	assert.Equal(t, model.PhaseCount, got.CompletedPhases)
	assert.Nil(t, got.CurrentPhase)
	assert.Nil(t, got.NextPhase)
	for _, p := range got.Phases {
		assert.True(t, p.DependencySatisfied, "phase %d", p.Phase)
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	row := model.RawRow{country.ColQuotation: "Aprobada", country.ColPurchase: "En tránsito"}
	info := &model.ParsedGeneralInfo{TotalValue: dec(1000), Draws: []model.Draw{draw(400, model.ItemPending)}}
	assert.Equal(t, Calculate(row, info, country.Colombia), Calculate(row, info, country.Colombia))
}

func TestWeightsSumTo100(t *testing.T) {
	sum := 0
	for _, p := range Phases {
		sum += p.Weight
	}
	assert.Equal(t, 100, sum)
}

// phaseOf calls the pointer method Phase on a non-addressable Calculate result.
func phaseOf(o model.OverallProgress, n int) *model.PhaseProgress {
	return o.Phase(n)
}
