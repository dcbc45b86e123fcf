package source

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				row.AddCell().SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "codes.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSXCodes(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Scans": {
			{"Station", "Code"},
			{"A1", "ABCCB01234567JA118901234"},
			{"A2", " "},
			{"A3"},
			{"A4", "XYZQ1A1HELLO"},
		},
	})

	codes, err := ReadXLSXCodes(path, XLSXOptions{Column: 1, HasHeader: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"ABCCB01234567JA118901234", "XYZQ1A1HELLO"}, codes)
}

func TestReadXLSXCodes_SheetName(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Line2": {{"ABCCB01234567JA118901234"}},
	})

	codes, err := ReadXLSXCodes(path, XLSXOptions{SheetName: "Line2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ABCCB01234567JA118901234"}, codes)

	_, err = ReadXLSXCodes(path, XLSXOptions{SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `sheet "Missing" not found`)
}

func TestReadXLSXCodes_SheetIndexOutOfRange(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Sheet1": {{"x"}}})

	_, err := ReadXLSXCodes(path, XLSXOptions{SheetIndex: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestReadXLSXCodes_MissingFile(t *testing.T) {
	_, err := ReadXLSXCodes(filepath.Join(t.TempDir(), "nope.xlsx"), XLSXOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source: open xlsx")
}
