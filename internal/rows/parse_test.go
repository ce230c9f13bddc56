package rows

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/tradeflow/internal/model"
)

const header = "Clave,Datos Cliente,Información General,Estado Cotización,Estado Giro Proveedor\n"

func TestParse_MultilineQuotedField(t *testing.T) {
	input := header +
		"OP-1,\"- CLIENTE: ACME\n-NIT:900123456-7\",\"CLIENTE: ACME\nVALOR TOTAL: 100,000 USD\nNota: \"\"urgente\"\"\",Aprobada,Pendiente\n" +
		"OP-2,Beta,\"info\",Enviada,\n"

	res, err := Parse(input, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Empty(t, res.Warnings)

	row := res.Rows[0]
	assert.Equal(t, "OP-1", row["Clave"])
	assert.Equal(t, "- CLIENTE: ACME\n-NIT:900123456-7", row["Datos Cliente"])
	assert.Equal(t, "CLIENTE: ACME\nVALOR TOTAL: 100,000 USD\nNota: \"urgente\"", row["Información General"])
	assert.Equal(t, "Aprobada", row["Estado Cotización"])
	assert.Equal(t, "OP-2", res.Rows[1]["Clave"])
	assert.Equal(t, "", res.Rows[1]["Estado Giro Proveedor"])
}

func TestParse_Header(t *testing.T) {
	res, err := Parse(" Clave , Datos Cliente \nOP-1,ACME\n", Options{MinFieldRatio: 0.5})
	require.NoError(t, err)
	assert.Equal(t, []string{"Clave", "Datos Cliente"}, res.Fields)
	require.Len(t, res.Rows, 1)
}

func TestParse_DropsShortRows(t *testing.T) {
	input := header +
		"OP-1,ACME,info,Aprobada,Pagado\n" +
		"OP-2,short\n" +
		"OP-3,Gamma,info,Enviada,\n"

	res, err := Parse(input, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, 3, res.Warnings[0].Line)
	assert.Equal(t, 2, res.Warnings[0].Fields)
	assert.Contains(t, res.Warnings[0].Reason, "too few fields")
}

func TestParse_PadsAcceptableShortRows(t *testing.T) {
	res, err := Parse(header+"OP-1,ACME,info\n", DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "", res.Rows[0]["Estado Giro Proveedor"])
	assert.True(t, res.Rows[0].Has("Estado Giro Proveedor"))
}

func TestParse_UnterminatedQuote(t *testing.T) {
	input := header +
		"OP-1,ACME,info,Aprobada,Pagado\n" +
		"OP-2,\"never closed,info,x,y\n"

	res, err := Parse(input, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "unterminated quoted field", res.Warnings[0].Reason)
}

func TestParse_SemicolonDelimiter(t *testing.T) {
	input := "Clave;Datos Cliente;Información General\nOP-1;ACME;\"a;b\"\n"
	res, err := Parse(input, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "a;b", res.Rows[0]["Información General"])
}

func TestParse_CRLFAndBOM(t *testing.T) {
	input := "\uFEFFClave,Datos Cliente\r\nOP-1,\"line one\r\nline two\"\r\n"
	res, err := Parse(input, Options{MinFieldRatio: 0.5})
	require.NoError(t, err)
	assert.Equal(t, "Clave", res.Fields[0])
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "line one\nline two", res.Rows[0]["Datos Cliente"])
}

func TestParse_RecordMarkerClosesRow(t *testing.T) {
	input := "Clave,Nota,Estado\n" +
		"OP-1,dijo \"sí\" luego,Aprobada\n" +
		"OP-2,otra,Enviada\n"

	res, err := Parse(input, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "OP-2", res.Rows[1]["Clave"])
}

func TestParse_ContinuationWithoutMarker(t *testing.T) {
	input := "Clave,Nota,Estado\n" +
		"OP-1,dijo \"sí\" luego,Aprobada\n" +
		"sigue la nota,Enviada\n"

	opts := DefaultOptions()
	opts.RecordMarker = nil
	res, err := Parse(input, opts)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Aprobada\nsigue la nota", res.Rows[0]["Estado"])
}

func TestParse_TrailingEmptyColumn(t *testing.T) {
	input := "Clave,Info,Notas\n" +
		"1,\"a, b\",\n" +
		"2,\"c\nd\",\n" +
		"3,\"e\",x\n"

	res, err := Parse(input, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)
	assert.Empty(t, res.Warnings)

	assert.Equal(t, model.RawRow{"Clave": "1", "Info": "a, b", "Notas": ""}, res.Rows[0])
	assert.Equal(t, model.RawRow{"Clave": "2", "Info": "c\nd", "Notas": ""}, res.Rows[1])
	assert.Equal(t, model.RawRow{"Clave": "3", "Info": "e", "Notas": "x"}, res.Rows[2])
}

func TestParse_ExtraFieldsWarn(t *testing.T) {
	res, err := Parse("Clave,Info\nOP-1,a,b,c\n", DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "a", res.Rows[0]["Info"])
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, 2, res.Warnings[0].Line)
	assert.Equal(t, 4, res.Warnings[0].Fields)
	assert.Contains(t, res.Warnings[0].Reason, "too many fields")
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse("", DefaultOptions())
	assert.Error(t, err)

	_, err = Parse("  \n\n", DefaultOptions())
	assert.Error(t, err)
}

func TestParse_Deterministic(t *testing.T) {
	input := header + "OP-1,ACME,\"multi\nline\",Aprobada,Pagado\n"
	a, err := Parse(input, DefaultOptions())
	require.NoError(t, err)
	b, err := Parse(input, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFileStats(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ops.csv")
	content := header + "OP-1,ACME,\"a\nb\",x,y\nOP-2,Beta,c,x,y\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	st, err := FileStats(path, regexp.MustCompile(DefaultRecordMarker))
	require.NoError(t, err)
	assert.True(t, st.Exists)
	assert.Equal(t, int64(len(content)), st.Size)
	assert.Equal(t, 2, st.RowCountEstimate)
	assert.False(t, st.LastModified.IsZero())

	st, err = FileStats(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, st.RowCountEstimate)
}

func TestFileStats_Missing(t *testing.T) {
	st, err := FileStats(filepath.Join(t.TempDir(), "nope.csv"), nil)
	require.NoError(t, err)
	assert.False(t, st.Exists)
	assert.Zero(t, st.Size)
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, ';', detectDelimiter("a;b;c"))
	assert.Equal(t, ',', detectDelimiter("a,b;c,d"))
	assert.Equal(t, ',', detectDelimiter(strings.Repeat("x", 3)))
}
