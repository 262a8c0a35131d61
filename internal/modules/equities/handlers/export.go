package handlers

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Colin123/equitylab-ui/internal/modules/equities"
)

const sheetName = "Stock List"

// WriteWorkbook writes records as an XLSX workbook with one header row.
// Finviz cells are written as hyperlinks.
func WriteWorkbook(w io.Writer, records []equities.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(equities.Columns))
	for i, c := range equities.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(equities.Columns))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	finvizCol, err := excelize.ColumnNumberToName(columnNumber(equities.ColFinviz))
	if err != nil {
		return err
	}

	for i, rec := range records {
		rowNum := i + 2
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}

		values := rec.Values()
		row := make([]interface{}, len(values))
		for j, v := range values {
			row[j] = v
		}
		if rec.ForwardPE != nil {
			row[columnNumber(equities.ColForwardPE)-1] = *rec.ForwardPE
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", rowNum, err)
		}

		if rec.Finviz != "" {
			link := fmt.Sprintf("%s%d", finvizCol, rowNum)
			if err := f.SetCellHyperLink(sheetName, link, rec.Finviz, "External"); err != nil {
				return fmt.Errorf("failed to link row %d: %w", rowNum, err)
			}
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func columnNumber(col string) int {
	for i, c := range equities.Columns {
		if c == col {
			return i + 1
		}
	}
	return 0
}
