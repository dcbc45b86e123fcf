package source

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions configures code extraction from a spreadsheet.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
	Column     int    // zero-based column holding the code
	HasHeader  bool   // skip the first row
}

// ReadXLSXCodes returns the non-blank codes in one column of a sheet.
func ReadXLSXCodes(path string, opts XLSXOptions) ([]string, error) {
	if opts.Column < 0 {
		return nil, eris.Errorf("source: negative column %d", opts.Column)
	}

	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "source: open xlsx")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	var codes []string
	for i, row := range sheet.Rows {
		if i == 0 && opts.HasHeader {
			continue
		}
		if row == nil || opts.Column >= len(row.Cells) {
			continue
		}
		code := strings.TrimSpace(row.Cells[opts.Column].String())
		if code == "" {
			continue
		}
		codes = append(codes, code)
	}
	return codes, nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("source: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex < 0 || opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("source: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}
