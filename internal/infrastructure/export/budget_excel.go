// Package export renders reports into spreadsheet files.
package export

import (
	"fmt"

	"github.com/shivfurniture/erp/internal/domain/accounting"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the MIME type of Office Open XML workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const summarySheet = "Budget Summary"

var summaryHeader = []any{"Code", "Analytical Account", "Allocated", "Used", "Remaining", "Utilization %"}

// BudgetExcelExporter writes a budget summary as a single-sheet workbook.
type BudgetExcelExporter struct{}

// NewBudgetExcelExporter creates an exporter.
func NewBudgetExcelExporter() *BudgetExcelExporter {
	return &BudgetExcelExporter{}
}

// ContentType returns the workbook MIME type.
func (e *BudgetExcelExporter) ContentType() string {
	return XLSXContentType
}

// ExportBudgetSummary renders one row per budget followed by a totals row.
// Amounts are written as numbers so that the sheet stays summable.
func (e *BudgetExcelExporter) ExportBudgetSummary(summary accounting.BudgetSummary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	title := fmt.Sprintf("Budget summary %s", summary.Period.String())
	if err := f.SetCellValue(summarySheet, "A1", title); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(summarySheet, "A3", &summaryHeader); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, err
	}

	row := 4
	for _, a := range summary.Accounts {
		values := []any{
			a.AccountCode,
			a.AccountName,
			number(a.Allocated),
			number(a.Used),
			number(a.Remaining),
			number(a.Utilization),
		}
		if err := f.SetSheetRow(summarySheet, cell("A", row), &values); err != nil {
			return nil, err
		}
		row++
	}

	totals := []any{
		"",
		"Total",
		number(summary.TotalAllocated),
		number(summary.TotalUsed),
		number(summary.TotalRemaining),
		number(summary.Utilization),
	}
	if err := f.SetSheetRow(summarySheet, cell("A", row), &totals); err != nil {
		return nil, err
	}

	if err := f.SetCellStyle(summarySheet, "A1", "A1", bold); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(summarySheet, "A3", "F3", bold); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(summarySheet, cell("A", row), cell("F", row), bold); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(summarySheet, "C4", cell("E", row), money); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(summarySheet, "B", "B", 32); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(summarySheet, "C", "F", 16); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func number(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
