package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status Status
		want   string
	}{
		{StatusPending, "pending"},
		{StatusInProgress, "in_progress"},
		{StatusCompleted, "completed"},
		{StatusRejected, "rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, string(tt.status))
		})
	}
}

func TestRawRow_Get(t *testing.T) {
	row := RawRow{"Cliente": "  ACME  ", "Vacío": ""}

	assert.Equal(t, "ACME", row.Get("Cliente"))
	assert.Equal(t, "", row.Get("Missing"))
	assert.True(t, row.Has("Vacío"))
	assert.False(t, row.Has("Missing"))
}

func TestParsedGeneralInfo_Totals(t *testing.T) {
	info := &ParsedGeneralInfo{
		Draws: []Draw{
			{Amount: decimal.NewFromInt(30000), Label: "Giro 1"},
			{Amount: decimal.Zero, Label: "Giro vacío"},
			{Amount: decimal.NewFromInt(70000), Label: "Giro 2"},
		},
		Releases: []Release{
			{Sequence: 1, Capital: decimal.NewFromInt(40000)},
			{Sequence: 2, Capital: decimal.NewFromFloat(10000.5)},
		},
	}

	assert.True(t, info.DrawTotal().Equal(decimal.NewFromInt(100000)))
	assert.True(t, info.ReleaseTotal().Equal(decimal.NewFromFloat(50000.5)))
	assert.Len(t, info.ValidDraws(), 2)
}

func TestOverallProgress_Phase(t *testing.T) {
	op := OverallProgress{Phases: []PhaseProgress{{Phase: 1}, {Phase: 2, Progress: 40}}}

	require.NotNil(t, op.Phase(2))
	assert.Equal(t, 40, op.Phase(2).Progress)
	assert.Nil(t, op.Phase(9))
}

func TestBanking_IsEmpty(t *testing.T) {
	assert.True(t, Banking{}.IsEmpty())
	assert.False(t, Banking{Swift: "BKCHCNBJ"}.IsEmpty())
}

func TestDraw_JSONShape(t *testing.T) {
	d := Draw{Amount: decimal.NewFromInt(1500), Label: "Giro 1", Status: ItemPaid}
	data, err := json.Marshal(d)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"amount":"1500"`)
	assert.Contains(t, string(data), `"status":"paid"`)
	assert.NotContains(t, string(data), "due_date")
}
