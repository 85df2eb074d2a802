package recordset

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/bluehands/internal/model"
)

const wantHeader = "region,name,type,address,phone,latitude,longitude," +
	"is_ev,is_ev_tech,is_hydrogen,is_frame,is_al_frame,is_n_line," +
	"is_commercial_mid,is_commercial_big,is_commercial_ev,is_cs_excellent"

func sample() []model.RawListing {
	var flags model.Flags
	flags = flags.Set(model.FlagEV, true).Set(model.FlagCSExcellent, true)
	return []model.RawListing{
		{
			RegionAlias: "서울",
			RegionName:  "서울특별시",
			Name:        "테스트지점",
			Type:        "종합",
			Address:     "서울특별시 강남구 테헤란로 1, 1층",
			Phone:       "010 1234 5678",
			Latitude:    37.5,
			Longitude:   127.0275,
			Flags:       flags,
		},
		{
			RegionAlias: "제주",
			Name:        "제주점",
			Type:        "전문",
			Latitude:    33.49,
			Longitude:   126.53,
		},
	}
}

func TestHeader(t *testing.T) {
	assert.Equal(t, wantHeader, strings.Join(Header(), ","))
	assert.Len(t, Header(), 17)
}

func TestCells(t *testing.T) {
	cells := Cells(sample()[0])
	require.Len(t, cells, 17)
	assert.Equal(t, "서울", cells[0], "region column holds the alias")
	assert.Equal(t, "37.5", cells[5])
	assert.Equal(t, "127.0275", cells[6])
	assert.Equal(t, "1", cells[7])
	assert.Equal(t, "0", cells[8])
	assert.Equal(t, "1", cells[16])
}

func TestWriteCSV_BOMAndHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample()))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\xef\xbb\xbf"), "output starts with a UTF-8 BOM")

	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(out, "\xef\xbb\xbf"), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, wantHeader, lines[0])
	assert.Equal(t, `서울,테스트지점,종합,"서울특별시 강남구 테헤란로 1, 1층",010 1234 5678,37.5,127.0275,1,0,0,0,0,0,0,0,0,1`, lines[1])
	assert.Equal(t, `제주,제주점,전문,,,33.49,126.53,0,0,0,0,0,0,0,0,0,0`, lines[2])
}

func TestWriteCSVFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "bluehands_final_all.csv")
	require.NoError(t, WriteCSVFile(path, sample()))

	set, err := Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, Header(), set.Header, "BOM is stripped from the first column name")
	assert.Empty(t, set.Missing())
	require.Len(t, set.Rows, 2)
	assert.Equal(t, "서울", set.Rows[0][ColRegion])
	assert.Equal(t, "서울특별시 강남구 테헤란로 1, 1층", set.Rows[0][ColAddress])
	assert.Equal(t, "1", set.Rows[0]["is_ev"])
	assert.Equal(t, "", set.Rows[1][ColPhone])

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestWriteXLSXFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bluehands.xlsx")
	require.NoError(t, WriteXLSXFile(path, sample()))

	set, err := Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, Header(), set.Header)
	require.Len(t, set.Rows, 2)
	assert.Equal(t, "테스트지점", set.Rows[0][ColName])
	assert.Equal(t, "127.0275", set.Rows[0][ColLongitude])
}

func TestRead_MissingFile(t *testing.T) {
	_, err := Read(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recordset: input file")
}

func TestRead_MissingColumnsAndShortRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.csv")
	body := "region, name ,type\n서울,a\n\n부산,b,전문\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	set, err := Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "name", "type"}, set.Header)
	require.Len(t, set.Rows, 2, "blank lines are skipped")
	assert.Equal(t, "a", set.Rows[0][ColName])
	_, ok := set.Rows[0][ColType]
	assert.False(t, ok, "short rows leave trailing columns unset")

	missing := set.Missing()
	assert.Equal(t, "address", missing[0])
	assert.Len(t, missing, 14)
}

func TestRead_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	set, err := Read(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, set.Header)
	assert.Empty(t, set.Rows)
	assert.Len(t, set.Missing(), 17)
}
