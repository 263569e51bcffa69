package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ghg-insights/ghg-dashboard/internal/emissions/forecast"
	"github.com/ghg-insights/ghg-dashboard/internal/insight"
)

// Sheet names of the forecast workbook, in tab order.
const (
	SheetMonthly     = "Monthly"
	SheetComposition = "Composition"
	SheetSubsectors  = "Subsectors"
	SheetInsights    = "Insights"
)

const headerFill = "#0F766E"

// WriteForecastXLSX writes the forecast of vm as an XLSX workbook.
func WriteForecastXLSX(w io.Writer, vm forecast.ViewModel) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetMonthly); err != nil {
		return err
	}
	for _, name := range []string{SheetComposition, SheetSubsectors, SheetInsights} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	if err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	numberStyle, err := f.NewStyle(&excelize.Style{
		NumFmt: 4, // #,##0.00
	})
	if err != nil {
		return err
	}

	s := sheetWriter{f: f, headerStyle: headerStyle, numberStyle: numberStyle}

	// Monthly
	s.cell(SheetMonthly, 1, 1, vm.Title)
	s.style(SheetMonthly, 1, 1, 1, titleStyle)
	s.header(SheetMonthly, 3, "Month", vm.DatasetLabel)
	for i, value := range vm.Monthly {
		row := 4 + i
		label := ""
		if i < len(vm.MonthLabels) {
			label = vm.MonthLabels[i]
		}
		s.cell(SheetMonthly, 1, row, label)
		s.number(SheetMonthly, 2, row, value)
	}
	total := 4 + len(vm.Monthly)
	s.cell(SheetMonthly, 1, total, "Total")
	s.number(SheetMonthly, 2, total, vm.TotalEmissions)
	s.width(SheetMonthly, "A", "B", 22)

	// Composition
	s.header(SheetComposition, 1, "Gas", "Share (%)", "Emission")
	for i, entry := range vm.Composition {
		row := 2 + i
		s.cell(SheetComposition, 1, row, entry.Label)
		s.number(SheetComposition, 2, row, entry.Ratio)
		s.number(SheetComposition, 3, row, entry.Absolute)
	}
	s.cell(SheetComposition, 1, 2+len(vm.Composition), "Total")
	s.number(SheetComposition, 3, 2+len(vm.Composition), vm.TotalCombined)
	s.width(SheetComposition, "A", "C", 18)

	// Subsectors
	columns := []string{"Subsector", "Share (%)", vm.PeriodLabel()}
	for _, entry := range vm.Composition {
		columns = append(columns, entry.Label)
	}
	s.header(SheetSubsectors, 1, columns...)
	for i, detail := range vm.Details {
		row := 2 + i
		s.cell(SheetSubsectors, 1, row, detail.DisplayName)
		s.number(SheetSubsectors, 2, row, detail.ShareOfTotal)
		s.number(SheetSubsectors, 3, row, detail.Value(vm.View.Mode))
		for j, gas := range detail.GasValues {
			s.number(SheetSubsectors, 4+j, row, gas.Value(vm.View.Mode))
		}
	}
	s.width(SheetSubsectors, "A", "A", 32)

	// Insights
	s.cell(SheetInsights, 1, 1, insight.Plain(vm.Insights))
	s.width(SheetInsights, "A", "A", 100)

	if s.err != nil {
		return s.err
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}

// sheetWriter keeps the first error of a run of cell writes.
type sheetWriter struct {
	f           *excelize.File
	headerStyle int
	numberStyle int
	err         error
}

func (s *sheetWriter) cell(sheet string, col, row int, value any) {
	if s.err != nil {
		return
	}
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		s.err = err
		return
	}
	if err := s.f.SetCellValue(sheet, name, value); err != nil {
		s.err = fmt.Errorf("%s!%s: %w", sheet, name, err)
	}
}

func (s *sheetWriter) number(sheet string, col, row int, value float64) {
	s.cell(sheet, col, row, value)
	s.style(sheet, col, row, col, s.numberStyle)
}

func (s *sheetWriter) header(sheet string, row int, titles ...string) {
	for i, title := range titles {
		s.cell(sheet, i+1, row, title)
	}
	s.style(sheet, 1, row, len(titles), s.headerStyle)
}

func (s *sheetWriter) style(sheet string, fromCol, row, toCol, style int) {
	if s.err != nil {
		return
	}
	from, err := excelize.CoordinatesToCellName(fromCol, row)
	if err != nil {
		s.err = err
		return
	}
	to, err := excelize.CoordinatesToCellName(toCol, row)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetCellStyle(sheet, from, to, style)
}

func (s *sheetWriter) width(sheet, from, to string, width float64) {
	if s.err != nil {
		return
	}
	s.err = s.f.SetColWidth(sheet, from, to, width)
}
