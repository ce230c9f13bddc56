package country

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name   string
		fields []string
		want   string
	}{
		{"colombian header", []string{ColKey, ColIdentity, ColGeneralInfo, ColLegalDocs}, "CO"},
		{"mexican header", []string{ColKey, ColIdentity, ColLegalDocs, ColCharterDocuments}, "MX"},
		{"padded column", []string{ColKey, "  estado acta constitutiva "}, "MX"},
		{"empty header", nil, "CO"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.fields).Code)
		})
	}
}

func TestByCode(t *testing.T) {
	p, err := ByCode("mx")
	require.NoError(t, err)
	assert.True(t, p.HasLegalDocColumn)
	assert.Equal(t, "RFC", p.TaxIDLabel)

	_, err = ByCode("AR")
	assert.Error(t, err)
}

func TestIsHoliday(t *testing.T) {
	assert.True(t, Colombia.IsHoliday(time.Date(2024, time.July, 20, 0, 0, 0, 0, time.UTC)))
	assert.False(t, Mexico.IsHoliday(time.Date(2024, time.July, 20, 0, 0, 0, 0, time.UTC)))
	assert.True(t, Mexico.IsHoliday(time.Date(2025, time.September, 16, 0, 0, 0, 0, time.UTC)))
}

func TestAllProfiles(t *testing.T) {
	all := All()
	require.Len(t, all, 2)
	assert.False(t, all[0].HasLegalDocColumn)
	assert.True(t, all[1].HasLegalDocColumn)
}
