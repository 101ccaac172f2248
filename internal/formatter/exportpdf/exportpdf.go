// Package exportpdf renders an already-formatted domain.OptimizationResult
// into a driver hand-out: one manifest section per route, built from the same
// Route/RouteStop data the Route Persister writes.
package exportpdf

import (
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/fleetops/optimizer/pkg/domain"
)

var (
	headerBgColor  = &props.Color{Red: 44, Green: 62, Blue: 80}
	primaryColor   = &props.Color{Red: 52, Green: 152, Blue: 219}
	lightGrayColor = &props.Color{Red: 236, Green: 240, Blue: 241}
	darkGrayColor  = &props.Color{Red: 127, Green: 140, Blue: 141}

	titleStyle = props.Text{Size: 20, Style: fontstyle.Bold, Align: align.Center, Color: headerBgColor}
	h2Style    = props.Text{Size: 13, Style: fontstyle.Bold, Color: headerBgColor, Top: 4}
	smallStyle = props.Text{Size: 8, Color: darkGrayColor}
	boldStyle = props.Text{Size: 9, Style: fontstyle.Bold}

	tableHeaderStyle     = &props.Cell{BackgroundColor: primaryColor}
	tableHeaderTextStyle = props.Text{Size: 8, Style: fontstyle.Bold, Color: &props.Color{Red: 255, Green: 255, Blue: 255}, Align: align.Center}
	tableCellStyle       = &props.Cell{BorderType: border.Bottom, BorderColor: lightGrayColor}
	tableCellTextStyle   = props.Text{Size: 8, Align: align.Center}
)

// Write renders one manifest section per route in result, labeled with
// routeName and scheduledDate, and returns the raw PDF bytes. Sections
// follow each other in a single flow, separated by spacer rows; no page
// break is forced between routes.
func Write(result *domain.OptimizationResult, routeName string, scheduledDate time.Time) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber().
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	for i, route := range result.Routes {
		if i > 0 {
			m.AddRow(10)
		}
		addRoutePage(m, route, routeName, scheduledDate)
	}
	if len(result.UnassignedJobs) > 0 {
		m.AddRow(10)
		addUnassignedPage(m, result.UnassignedJobs)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("exportpdf: generate: %w", err)
	}
	return doc.GetBytes(), nil
}

func addRoutePage(m core.Maroto, route domain.FormattedRoute, routeName string, scheduledDate time.Time) {
	m.AddRow(14, text.NewCol(12, fmt.Sprintf("%s — %s", routeName, scheduledDate.Format("2006-01-02")), titleStyle))
	m.AddRow(4, line.NewCol(12, props.Line{Color: primaryColor}))

	m.AddRow(8,
		text.NewCol(6, fmt.Sprintf("Driver #%d", route.DriverID), boldStyle),
		text.NewCol(6, fmt.Sprintf("Distance %.0f m | Duration %d s", route.TotalDistanceMeters, route.TotalDurationSeconds),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Right}),
	)

	if route.Break != nil {
		m.AddRow(6, text.NewCol(12, fmt.Sprintf("Break: %s - %s (%d min)",
			route.Break.StartTime.Format("15:04"), route.Break.EndTime.Format("15:04"), route.Break.DurationMinutes), smallStyle))
	}

	m.AddRow(6)
	m.AddRow(8,
		text.NewCol(1, "Seq", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "Type", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(5, "Address", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "Arrival", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "Departure", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
	)

	for _, stop := range route.Stops {
		m.AddRow(6,
			text.NewCol(1, fmt.Sprintf("%d", stop.SequenceOrder), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(2, string(stop.StopType), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(5, stop.Address, tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(2, stop.ArrivalTime.Format("15:04"), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(2, stop.DepartureTime.Format("15:04"), tableCellTextStyle).WithStyle(tableCellStyle),
		)
	}
}

func addUnassignedPage(m core.Maroto, unassigned []domain.UnassignedJob) {
	m.AddRow(10, text.NewCol(12, "Unassigned Jobs", h2Style))
	m.AddRow(8,
		text.NewCol(2, "Job ID", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(5, "Address", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(5, "Reason", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
	)
	for _, job := range unassigned {
		m.AddRow(6,
			text.NewCol(2, fmt.Sprintf("%d", job.JobID), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(5, job.Address, tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(5, job.Reason, tableCellTextStyle).WithStyle(tableCellStyle),
		)
	}
}
