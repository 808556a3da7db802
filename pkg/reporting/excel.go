package reporting

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/trend-rsi-backtest/internal/backtest"
)

const (
	summarySheet = "Summary"
	tradesSheet  = "Trades"
)

// excelStyles holds the workbook's cell styles.
type excelStyles struct {
	header   int
	currency int
	percent  int
	text     int
	positive int
	negative int
}

// WriteExcel writes a workbook with one summary row per instrument and every
// trade event.
func WriteExcel(path string, p Portfolio, results []*backtest.Result) error {
	if err := EnsureDirectoryExists(path); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	fx := excelize.NewFile()
	defer fx.Close()

	if err := fx.SetSheetName(fx.GetSheetName(0), summarySheet); err != nil {
		return err
	}
	if _, err := fx.NewSheet(tradesSheet); err != nil {
		return err
	}

	styles, err := createExcelStyles(fx)
	if err != nil {
		return err
	}
	if err := writeSummarySheet(fx, p, results, styles); err != nil {
		return err
	}
	if err := writeTradesSheet(fx, results, styles); err != nil {
		return err
	}
	return fx.SaveAs(path)
}

func createExcelStyles(fx *excelize.File) (excelStyles, error) {
	var s excelStyles
	var err error
	border := []excelize.Border{
		{Type: "left", Color: "E0E0E0", Style: 1},
		{Type: "right", Color: "E0E0E0", Style: 1},
		{Type: "bottom", Color: "E0E0E0", Style: 1},
	}

	if s.header, err = fx.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		return s, err
	}
	if s.currency, err = fx.NewStyle(&excelize.Style{
		NumFmt: 7, Alignment: &excelize.Alignment{Horizontal: "right"}, Border: border,
	}); err != nil {
		return s, err
	}
	if s.percent, err = fx.NewStyle(&excelize.Style{
		NumFmt: 10, Alignment: &excelize.Alignment{Horizontal: "right"}, Border: border,
	}); err != nil {
		return s, err
	}
	if s.text, err = fx.NewStyle(&excelize.Style{Border: border}); err != nil {
		return s, err
	}
	if s.positive, err = fx.NewStyle(&excelize.Style{
		NumFmt: 10, Font: &excelize.Font{Color: "006100"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1}, Border: border,
	}); err != nil {
		return s, err
	}
	if s.negative, err = fx.NewStyle(&excelize.Style{
		NumFmt: 10, Font: &excelize.Font{Color: "9C0006"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1}, Border: border,
	}); err != nil {
		return s, err
	}
	return s, nil
}

func writeHeader(fx *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := fx.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := fx.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}
	return fx.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func writeSummarySheet(fx *excelize.File, p Portfolio, results []*backtest.Result, s excelStyles) error {
	headers := []string{"Ticker", "Trades", "Final Capital", "Position Value", "Return", "Status",
		"Round Trips", "Win Rate", "Max Drawdown", "Exposure", "Start", "End"}
	if err := writeHeader(fx, summarySheet, headers, s.header); err != nil {
		return err
	}

	row := 2
	for _, r := range results {
		retStyle := s.percent
		if r.ReturnPct > 0 {
			retStyle = s.positive
		} else if r.ReturnPct < 0 {
			retStyle = s.negative
		}
		values := []struct {
			v     interface{}
			style int
		}{
			{r.Symbol, s.text},
			{r.TradesExecuted, s.text},
			{r.FinalCapital, s.currency},
			{r.PositionValue, s.currency},
			{r.ReturnPct / 100, retStyle},
			{string(r.Status), s.text},
			{len(r.Stats.RoundTrips), s.text},
			{r.Stats.WinRate / 100, s.percent},
			{r.Stats.MaxDrawdown, s.percent},
			{r.Stats.Exposure, s.percent},
			{r.StartDate.Format(time.DateOnly), s.text},
			{r.EndDate.Format(time.DateOnly), s.text},
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := fx.SetCellValue(summarySheet, cell, v.v); err != nil {
				return err
			}
			if err := fx.SetCellStyle(summarySheet, cell, cell, v.style); err != nil {
				return err
			}
		}
		row++
	}

	// Portfolio totals below the table.
	row++
	totals := [][2]interface{}{
		{"Total Invested", p.TotalInvested},
		{"Final Value", p.FinalValue},
		{"Currently Held", p.HeldValue},
	}
	for _, t := range totals {
		if err := fx.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), t[0]); err != nil {
			return err
		}
		if err := fx.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), t[1]); err != nil {
			return err
		}
		if err := fx.SetCellStyle(summarySheet, fmt.Sprintf("C%d", row), fmt.Sprintf("C%d", row), s.currency); err != nil {
			return err
		}
		row++
	}
	if err := fx.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), "Global Return"); err != nil {
		return err
	}
	if err := fx.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), p.ReturnPct/100); err != nil {
		return err
	}
	if err := fx.SetCellStyle(summarySheet, fmt.Sprintf("C%d", row), fmt.Sprintf("C%d", row), s.percent); err != nil {
		return err
	}
	return fx.SetColWidth(summarySheet, "A", "L", 15)
}

func writeTradesSheet(fx *excelize.File, results []*backtest.Result, s excelStyles) error {
	headers := []string{"Ticker", "Date", "Action", "Amount", "Price", "Reason"}
	if err := writeHeader(fx, tradesSheet, headers, s.header); err != nil {
		return err
	}

	row := 2
	for _, r := range results {
		for _, ev := range r.History {
			values := []interface{}{r.Symbol, ev.Date.Format(time.DateOnly), string(ev.Action), ev.Amount, ev.Price, ev.Reason}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := fx.SetSheetRow(tradesSheet, cell, &values); err != nil {
				return err
			}
			if err := fx.SetCellStyle(tradesSheet, fmt.Sprintf("D%d", row), fmt.Sprintf("E%d", row), s.currency); err != nil {
				return err
			}
			row++
		}
	}
	if err := fx.SetColWidth(tradesSheet, "A", "E", 14); err != nil {
		return err
	}
	return fx.SetColWidth(tradesSheet, "F", "F", 60)
}
