package sampler

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sector-insights/internal/pipeline/records"
)

var header = []string{FieldCompany, FieldActivity, FieldMunicipality, FieldEntity, FieldSize}

// generatedSource yields total rows lazily; match decides which rows carry the
// sector/state tokens.
type generatedSource struct {
	total int
	match func(row int) bool
	read  int
}

func (s *generatedSource) Next() (records.Record, error) {
	if s.read >= s.total {
		return records.Record{}, io.EOF
	}
	s.read++
	row := s.read
	if s.match(row) {
		return records.NewRecord(header, []string{
			fmt.Sprintf("Planta %d", row), "Generación de Energía Solar", "Puebla", "México", "11 a 30 personas",
		}), nil
	}
	return records.NewRecord(header, []string{
		fmt.Sprintf("Tienda %d", row), "Comercio al por menor", "Mérida", "Yucatán", "0 a 5 personas",
	}), nil
}

type sliceSource struct {
	rows []records.Record
	err  error
	pos  int
}

func (s *sliceSource) Next() (records.Record, error) {
	if s.pos >= len(s.rows) {
		if s.err != nil {
			return records.Record{}, s.err
		}
		return records.Record{}, io.EOF
	}
	rec := s.rows[s.pos]
	s.pos++
	return rec, nil
}

func TestSample_StopsAtSampleCap(t *testing.T) {
	src := &generatedSource{
		total: 20000,
		match: func(row int) bool { return row == 1 || row == 5000 || (row >= 9990 && row <= 10050) },
	}

	res, err := Sample(src, NewQuery("Energia", "Mexico"))
	require.NoError(t, err)

	require.Len(t, res.Items, MaxSampleSize)
	assert.Equal(t, "Planta 1", res.Items[0].Company)
	assert.Equal(t, "Planta 5000", res.Items[1].Company)
	for i := 2; i < MaxSampleSize; i++ {
		assert.Equal(t, fmt.Sprintf("Planta %d", 9990+i-2), res.Items[i].Company)
	}
	// tenth match is row 9997; nothing past it is read
	assert.Equal(t, 9997, res.RowsScanned)
	assert.Equal(t, 9997, src.read)
}

func TestSample_StopsAtScanCeiling(t *testing.T) {
	src := &generatedSource{total: 50000, match: func(row int) bool { return row == 3 || row == 15002 }}

	res, err := Sample(src, NewQuery("energia", "mexico"))
	require.NoError(t, err)

	assert.Equal(t, ScanCeiling+1, res.RowsScanned)
	assert.Equal(t, ScanCeiling+1, src.read)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Planta 3", res.Items[0].Company)
}

func TestSample_CeilingRowItselfIsExamined(t *testing.T) {
	src := &generatedSource{total: 50000, match: func(row int) bool { return row == ScanCeiling+1 }}

	res, err := Sample(src, NewQuery("energia", "mexico"))
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, fmt.Sprintf("Planta %d", ScanCeiling+1), res.Items[0].Company)
}

func TestSample_EmptySource(t *testing.T) {
	res, err := Sample(&sliceSource{}, NewQuery("Energia", "Mexico"))
	require.NoError(t, err)

	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
	assert.Equal(t, 0, res.RowsScanned)
}

func TestSample_PartialSampleIsNotAnError(t *testing.T) {
	src := &generatedSource{total: 300, match: func(row int) bool { return row%100 == 0 }}

	res, err := Sample(src, NewQuery("Energía", "México"))
	require.NoError(t, err)
	assert.Len(t, res.Items, 3)
	assert.Equal(t, 300, res.RowsScanned)
}

func TestSample_PropagatesReadError(t *testing.T) {
	boom := errors.New("connection reset")
	src := &sliceSource{
		rows: []records.Record{records.NewRecord(header, []string{"A", "energia", "x", "mexico", "1"})},
		err:  boom,
	}

	res, err := Sample(src, NewQuery("energia", "mexico"))
	assert.ErrorIs(t, err, boom)
	assert.Len(t, res.Items, 1)
}

func TestSample_InvariantsHoldForAllMatchingSource(t *testing.T) {
	src := &generatedSource{total: 100000, match: func(int) bool { return true }}

	res, err := Sample(src, NewQuery("", ""))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(res.Items), MaxSampleSize)
	assert.LessOrEqual(t, res.RowsScanned, ScanCeiling+1)
	assert.Equal(t, MaxSampleSize, res.RowsScanned)
}

func TestMatches(t *testing.T) {
	row := "parque industrial energia solar puebla mexico"

	assert.True(t, Matches(row, NewQuery("Energia", "Mexico")))
	assert.True(t, Matches(row, NewQuery("MÉXICO", "energía")))
	assert.False(t, Matches(row, NewQuery("Mineria", "Mexico")))
	assert.False(t, Matches(row, NewQuery("Energia", "Jalisco")))
	// substring, not word match
	assert.True(t, Matches(row, NewQuery("ergia sol", "xic")))
}

func TestRowText_SkipsEmptyValues(t *testing.T) {
	rec := records.NewRecord([]string{"a", "b", "c", "d"}, []string{"Energía", "", "", "MÉXICO"})

	assert.Equal(t, "energia mexico", RowText(rec))
	// an empty field contributes no separator, so adjacent tokens join with one space
	assert.True(t, Matches(RowText(rec), NewQuery("energia mexico", "")))
	assert.False(t, strings.Contains(RowText(rec), "  "))
}

func TestRowText_DuplicateHeaderUsesMappedValue(t *testing.T) {
	rec := records.NewRecord([]string{"x", "x", "y"}, []string{"energia", "other", "mexico"})

	assert.Equal(t, "other mexico", RowText(rec))
	assert.False(t, Matches(RowText(rec), NewQuery("energia", "mexico")))
}

func TestProject(t *testing.T) {
	full := records.NewRecord(header, []string{"Solar SA", "Generación", "Puebla", "Puebla", "51 a 100 personas"})
	assert.Equal(t, SampleItem{
		Company:  "Solar SA",
		Activity: "Generación",
		Location: "Puebla, Puebla",
		Size:     "51 a 100 personas",
	}, Project(full))

	short := records.NewRecord(header, []string{"Solar SA", "Generación", "Puebla"})
	assert.Equal(t, SampleItem{
		Company:  "Solar SA",
		Activity: "Generación",
		Location: "Puebla, ",
		Size:     NotAvailable,
	}, Project(short))

	bare := records.NewRecord([]string{"other"}, []string{"x"})
	assert.Equal(t, SampleItem{Company: "N/A", Activity: "N/A", Location: ", ", Size: "N/A"}, Project(bare))
}

func TestSample_WithReader(t *testing.T) {
	src := "nom_estab,nombre_act,municipio,entidad,per_ocu\n" +
		"Eólica del Sur,Generación de energía eólica,Juchitán,Oaxaca,101 a 250 personas\n" +
		"Minera Norte,Minería de plata,Fresnillo,Zacatecas,251 y más personas\n" +
		"Solar Bajío,Energía solar,León,Guanajuato\n"

	enc, err := records.LookupEncoding("utf-8")
	require.NoError(t, err)

	res, err := Sample(records.NewReader(strings.NewReader(src), enc), NewQuery("energia", "guanajuato"))
	require.NoError(t, err)

	require.Len(t, res.Items, 1)
	assert.Equal(t, "Solar Bajío", res.Items[0].Company)
	assert.Equal(t, "León, Guanajuato", res.Items[0].Location)
	assert.Equal(t, NotAvailable, res.Items[0].Size)
	assert.Equal(t, 3, res.RowsScanned)
}
