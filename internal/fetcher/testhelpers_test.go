package fetcher

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

// collectRows drains both channels and returns all rows and the first error.
func collectRows(rowCh <-chan []string, errCh <-chan error) ([][]string, error) {
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	var firstErr error
	for err := range errCh {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return rows, firstErr
}

// createTestXLSX writes a single-sheet workbook into a temp dir.
func createTestXLSX(t *testing.T, sheetName string, data [][]string) string {
	t.Helper()

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	require.NoError(t, err)

	for _, rowData := range data {
		row := sheet.AddRow()
		for _, val := range rowData {
			cell := row.AddCell()
			cell.SetString(val)
		}
	}

	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.Save(path))
	return path
}
