package stationhttp

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	telemetry "swapstation-cloud/internal/telemetry/domain"
)

var fleetExportColumns = []string{
	"station_id",
	"battery_available",
	"battery_charging",
	"temperature",
	"humidity",
	"status",
	"total_swaps_today",
	"last_swap_time",
	"timestamp",
	"processed_at",
}

// BuildFleetPDF renders a minimal PDF snapshot of the fleet.
func BuildFleetPDF(stations []telemetry.StationState, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Station Fleet Snapshot")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.UTC().Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Stations: %d", len(stations)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(40, 6, "Station", "1", 0, "C", false, 0, "")
	pdf.CellFormat(28, 6, "Available", "1", 0, "C", false, 0, "")
	pdf.CellFormat(28, 6, "Charging", "1", 0, "C", false, 0, "")
	pdf.CellFormat(28, 6, "Temp (C)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(28, 6, "Humidity (%)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(32, 6, "Status", "1", 0, "C", false, 0, "")
	pdf.CellFormat(28, 6, "Swaps Today", "1", 0, "C", false, 0, "")
	pdf.CellFormat(48, 6, "Reported", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, st := range stations {
		pdf.CellFormat(40, 6, st.StationID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(28, 6, strconv.Itoa(st.BatteryAvailable), "1", 0, "R", false, 0, "")
		pdf.CellFormat(28, 6, formatOptionalInt(st.BatteryCharging), "1", 0, "R", false, 0, "")
		pdf.CellFormat(28, 6, formatOptionalFloat(st.Temperature), "1", 0, "R", false, 0, "")
		pdf.CellFormat(28, 6, formatOptionalFloat(st.Humidity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(32, 6, st.Status, "1", 0, "C", false, 0, "")
		pdf.CellFormat(28, 6, formatOptionalInt(st.TotalSwapsToday), "1", 0, "R", false, 0, "")
		pdf.CellFormat(48, 6, st.Timestamp.UTC().Format(time.RFC3339), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildFleetXLSX renders a minimal XLSX snapshot of the fleet.
func BuildFleetXLSX(stations []telemetry.StationState, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	stationsSheet := "stations"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(stationsSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Station Fleet Snapshot")
	_ = f.SetCellValue(summarySheet, "A3", "Generated")
	_ = f.SetCellValue(summarySheet, "B3", generatedAt.UTC().Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A4", "Stations")
	_ = f.SetCellValue(summarySheet, "B4", len(stations))

	for i, col := range fleetExportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(stationsSheet, cell, col)
	}
	for i, st := range stations {
		row := i + 2
		values := fleetExportRow(st)
		for j, value := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			_ = f.SetCellValue(stationsSheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fleetExportRow(st telemetry.StationState) []string {
	return []string{
		st.StationID,
		strconv.Itoa(st.BatteryAvailable),
		formatOptionalInt(st.BatteryCharging),
		formatOptionalFloat(st.Temperature),
		formatOptionalFloat(st.Humidity),
		st.Status,
		formatOptionalInt(st.TotalSwapsToday),
		st.LastSwapTime,
		st.Timestamp.UTC().Format(time.RFC3339),
		st.ProcessedAt.UTC().Format(time.RFC3339),
	}
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}
