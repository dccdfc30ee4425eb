package exports

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"vhc_backend/internal/healthchecks/domain"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	boardSheet   = "Board"
	summarySheet = "Summary"
	kpiSheet     = "KPIs"
	timeLayout   = "2006-01-02 15:04"
)

var boardHeadings = []string{
	"Column", "Status", "Vehicle Reg", "Promised At", "Alert",
	"Technician", "Labour", "Parts", "Authorised", "Sent",
	"Identified", "Authorised Value", "Declined Value",
	"Red", "Amber", "Green", "Clocked Minutes",
}

// boardRows flattens the board column by column.
func boardRows(board domain.Board, loc *time.Location) [][]interface{} {
	rows := make([][]interface{}, 0)
	for _, col := range board.Columns {
		for _, card := range col.Cards {
			in := card.Inspection
			promised := ""
			if in.PromisedAt != nil {
				promised = in.PromisedAt.In(loc).Format(timeLayout)
			}
			rows = append(rows, []interface{}{
				string(col.Column), string(in.Status), in.VehicleReg, promised, string(card.SLA.Alert),
				string(card.Workflow.Technician), string(card.Workflow.Labour), string(card.Workflow.Parts),
				string(card.Workflow.Authorised), string(card.Workflow.Sent),
				card.IdentifiedTotal.InexactFloat64(), card.AuthorisedTotal.InexactFloat64(), card.DeclinedTotal.InexactFloat64(),
				card.Severity.Identified.Red, card.Severity.Identified.Amber, card.Severity.Identified.Green,
				card.ClockedMinutes,
			})
		}
	}
	return rows
}

// WriteBoardWorkbook writes the board and its summary as an xlsx workbook.
// It returns the number of card rows written.
func WriteBoardWorkbook(w io.Writer, board domain.Board, loc *time.Location) (int, error) {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", boardSheet); err != nil {
		return 0, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return 0, err
	}

	rows := boardRows(board, loc)
	if err := writeTable(f, boardSheet, boardHeadings, rows, bold); err != nil {
		return 0, err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return 0, err
	}
	s := board.Summary
	summary := [][]interface{}{
		{"Active", s.ActiveCount},
		{"Overdue", s.OverdueCount},
		{"Expiring", s.ExpiringCount},
		{"Sent", s.SentCount},
		{"Converted", s.ConvertedCount},
		{"Conversion Rate", s.ConversionRate.InexactFloat64()},
		{"Identified", s.IdentifiedTotal.InexactFloat64()},
		{"Authorised", s.AuthorisedTotal.InexactFloat64()},
	}
	for _, column := range domain.Columns {
		summary = append(summary, []interface{}{"Column " + string(column), s.ColumnCounts[column]})
	}
	if err := writeTable(f, summarySheet, []string{"Metric", "Value"}, summary, bold); err != nil {
		return 0, err
	}

	if err := f.Write(w); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// WriteBoardCSV writes the board cards as CSV.
func WriteBoardCSV(w io.Writer, board domain.Board, loc *time.Location) (int, error) {
	if loc == nil {
		loc = time.UTC
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(boardHeadings); err != nil {
		return 0, err
	}

	rows := boardRows(board, loc)
	for _, row := range rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = csvValue(v)
		}
		if err := writer.Write(record); err != nil {
			return 0, err
		}
	}
	writer.Flush()
	return len(rows), writer.Error()
}

func csvValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', 2, 64)
	default:
		return fmt.Sprint(t)
	}
}

// WriteKPIWorkbook writes the monthly comparison as an xlsx workbook.
func WriteKPIWorkbook(w io.Writer, kpis domain.MonthlyKPIs) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", kpiSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	cur, prev, d := kpis.Current, kpis.Previous, kpis.Deltas
	rows := [][]interface{}{
		{"Health Checks", cur.HCCount, prev.HCCount, d.HCCount},
		{"Completed", cur.CompletedCount, prev.CompletedCount, d.CompletedCount},
		{"Sent", cur.SentCount, prev.SentCount, cur.SentCount - prev.SentCount},
		{"Conversion Rate", cur.ConversionRate.InexactFloat64(), prev.ConversionRate.InexactFloat64(), optional(d.ConversionRate)},
		{"Red Identified", cur.RedIdentified, prev.RedIdentified, cur.RedIdentified - prev.RedIdentified},
		{"Red Authorised", cur.RedAuthorised, prev.RedAuthorised, cur.RedAuthorised - prev.RedAuthorised},
		{"Red Sold %", optional(cur.RedSoldPct), optional(prev.RedSoldPct), optional(d.RedSoldPct)},
		{"Identified", cur.IdentifiedTotal.InexactFloat64(), prev.IdentifiedTotal.InexactFloat64(), optional(d.IdentifiedTotal)},
		{"Authorised", cur.AuthorisedTotal.InexactFloat64(), prev.AuthorisedTotal.InexactFloat64(), optional(d.AuthorisedTotal)},
		{"Avg Identified", optional(cur.AvgIdentified), optional(prev.AvgIdentified), optional(d.AvgIdentified)},
		{"Avg Sold", optional(cur.AvgSold), optional(prev.AvgSold), optional(d.AvgSold)},
		{"Avg Per Day", cur.AvgPerDay.InexactFloat64(), prev.AvgPerDay.InexactFloat64(), optional(d.AvgPerDay)},
		{"Days", cur.DaysInPeriod, prev.DaysInPeriod, ""},
		{"Top Advisor", advisorLabel(cur.TopAdvisor), advisorLabel(prev.TopAdvisor), ""},
	}
	if err := writeTable(f, kpiSheet, []string{"Metric", cur.Period, prev.Period, "Change"}, rows, bold); err != nil {
		return err
	}
	return f.Write(w)
}

func writeTable(f *excelize.File, sheet string, headings []string, rows [][]interface{}, headingStyle int) error {
	header := make([]interface{}, len(headings))
	for i, h := range headings {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headings), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headingStyle); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// optional renders a missing figure as an empty cell.
func optional(d *decimal.Decimal) interface{} {
	if d == nil {
		return ""
	}
	return d.InexactFloat64()
}

func advisorLabel(a *domain.AdvisorScore) string {
	if a == nil {
		return ""
	}
	name := a.Name
	if name == "" {
		name = a.AdvisorID.String()
	}
	return fmt.Sprintf("%s (%s)", name, a.Score.StringFixed(1))
}
