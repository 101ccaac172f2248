// Package exportxlsx renders an already-formatted domain.OptimizationResult
// into a downloadable route sheet, one row per stop. It operates entirely
// on the Result Formatter's output (§4.5) — no upload or geocoding concerns.
package exportxlsx

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/fleetops/optimizer/pkg/domain"
)

var headerStyle = excelize.Style{
	Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
	Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	Alignment: &excelize.Alignment{Horizontal: "center"},
}

var stopColumns = []string{
	"Seq", "Type", "Job ID", "Address", "Arrival", "Departure",
	"Distance To Next (m)", "Time To Next (s)",
}

// Write builds an xlsx workbook with one sheet per route (named "Route N"
// for the Nth route in result) plus a trailing "Unassigned" sheet, and
// returns the raw file bytes.
func Write(result *domain.OptimizationResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, route := range result.Routes {
		sheetName := fmt.Sprintf("Route %d", i+1)
		if _, err := f.NewSheet(sheetName); err != nil {
			return nil, fmt.Errorf("exportxlsx: new sheet: %w", err)
		}
		writeRouteSheet(f, sheetName, route)
	}

	writeUnassignedSheet(f, result.UnassignedJobs)

	f.DeleteSheet("Sheet1")

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("exportxlsx: write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRouteSheet(f *excelize.File, sheetName string, route domain.FormattedRoute) {
	style, _ := f.NewStyle(&headerStyle)

	f.SetCellValue(sheetName, "A1", fmt.Sprintf("Driver %d", route.DriverID))
	f.SetCellValue(sheetName, "B1", fmt.Sprintf("Total distance %.0f m, %d s", route.TotalDistanceMeters, route.TotalDurationSeconds))

	headerRow := 3
	for i, h := range stopColumns {
		f.SetCellValue(sheetName, cellAddr(i, headerRow), h)
	}
	f.SetCellStyle(sheetName, cellAddr(0, headerRow), cellAddr(len(stopColumns)-1, headerRow), style)

	for i, stop := range route.Stops {
		row := headerRow + 1 + i
		jobID := ""
		if stop.JobID != nil {
			jobID = fmt.Sprintf("%d", *stop.JobID)
		}
		f.SetCellValue(sheetName, cellAddr(0, row), stop.SequenceOrder)
		f.SetCellValue(sheetName, cellAddr(1, row), string(stop.StopType))
		f.SetCellValue(sheetName, cellAddr(2, row), jobID)
		f.SetCellValue(sheetName, cellAddr(3, row), stop.Address)
		f.SetCellValue(sheetName, cellAddr(4, row), stop.ArrivalTime.Format("15:04:05"))
		f.SetCellValue(sheetName, cellAddr(5, row), stop.DepartureTime.Format("15:04:05"))
		f.SetCellValue(sheetName, cellAddr(6, row), stop.DistanceToNextMeters)
		f.SetCellValue(sheetName, cellAddr(7, row), stop.TimeToNextStopSeconds)
	}

	f.SetColWidth(sheetName, "A", "H", 16)
}

func writeUnassignedSheet(f *excelize.File, unassigned []domain.UnassignedJob) {
	sheetName := "Unassigned"
	f.NewSheet(sheetName)
	style, _ := f.NewStyle(&headerStyle)

	headers := []string{"Job ID", "Address", "Reason"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cellAddr(i, 1), h)
	}
	f.SetCellStyle(sheetName, cellAddr(0, 1), cellAddr(len(headers)-1, 1), style)

	for i, job := range unassigned {
		row := i + 2
		f.SetCellValue(sheetName, cellAddr(0, row), job.JobID)
		f.SetCellValue(sheetName, cellAddr(1, row), job.Address)
		f.SetCellValue(sheetName, cellAddr(2, row), job.Reason)
	}
	f.SetColWidth(sheetName, "A", "C", 24)
}

func cellAddr(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}
