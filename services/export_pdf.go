package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// Grid widths. The grid grows with the number of contractors so every
// contractor gets the same share.
const (
	pdfCodeCols   = 2
	pdfDescCols   = 6
	pdfQtyCols    = 2
	pdfUnitCols   = 1
	pdfFixedCols  = pdfCodeCols + pdfDescCols + pdfQtyCols + pdfUnitCols
	pdfBidderCols = 3
)

var (
	fillBg     = &props.Color{Red: 254, Green: 243, Blue: 199}
	overrideBg = &props.Color{Red: 219, Green: 234, Blue: 254}
	lowestBg   = &props.Color{Red: 220, Green: 252, Blue: 231}
)

// GeneratePDF renders the bid comparison as a landscape A4 document.
func GeneratePDF(data ExportData) ([]byte, error) {
	grid := pdfFixedCols + pdfBidderCols*len(data.Contractors)

	cfg := config.NewBuilder().
		WithOrientation(orientation.Horizontal).
		WithPageSize(pagesize.A4).
		WithMaxGridSize(grid).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addHeader(m, data, grid)
	addTableHeader(m, data)
	for _, r := range data.Rows {
		addTableRow(m, r, data.Money, len(data.Contractors))
	}
	addTotals(m, data)
	addFooter(m, data, grid)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

// addHeader adds the title, reference, date and normalization settings.
func addHeader(m core.Maroto, data ExportData, grid int) {
	half := grid / 2
	grey := &props.Color{Red: 80, Green: 80, Blue: 80}

	m.AddRows(
		row.New(12).Add(
			col.New(grid).Add(
				text.New(data.Title, props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
	)

	m.AddRows(
		row.New(8).Add(
			col.New(half).Add(
				text.New(fmt.Sprintf("Reference: %s", data.ReferenceNumber), props.Text{
					Size:  9,
					Align: align.Left,
					Color: grey,
				}),
			),
			col.New(grid-half).Add(
				text.New(fmt.Sprintf("Date: %s", data.CreatedDate), props.Text{
					Size:  9,
					Align: align.Right,
					Color: grey,
				}),
			),
		),
	)

	m.AddRows(
		row.New(6).Add(
			col.New(grid).Add(
				text.New(settingsLine(data.Settings), props.Text{
					Size:  8,
					Style: fontstyle.Italic,
					Align: align.Left,
					Color: grey,
				}),
			),
		),
	)

	m.AddRows(row.New(4))
}

// addTableHeader adds the column header row, one column per contractor.
func addTableHeader(m core.Maroto, data ExportData) {
	headerBg := &props.Color{Red: 33, Green: 37, Blue: 41}
	headerText := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}
	headerTextLeft := headerText
	headerTextLeft.Align = align.Left

	headerCell := &props.Cell{BackgroundColor: headerBg}

	cols := []core.Col{
		col.New(pdfCodeCols).Add(text.New("Code", headerText)).WithStyle(headerCell),
		col.New(pdfDescCols).Add(text.New("Description", headerTextLeft)).WithStyle(headerCell),
		col.New(pdfQtyCols).Add(text.New("Qty", headerText)).WithStyle(headerCell),
		col.New(pdfUnitCols).Add(text.New("Unit", headerText)).WithStyle(headerCell),
	}
	for _, name := range data.Contractors {
		cols = append(cols, col.New(pdfBidderCols).Add(text.New(name, headerText)).WithStyle(headerCell))
	}
	m.AddRows(row.New(10).Add(cols...))
}

// addTableRow adds one division, section or line-item row.
func addTableRow(m core.Maroto, r ExportRow, money MoneyFormat, bidders int) {
	var rowStyle *props.Cell
	var textSize float64 = 7
	textStyle := fontstyle.Normal
	descPrefix := ""

	switch r.Level {
	case 0:
		textStyle = fontstyle.Bold
		textSize = 8
		rowStyle = &props.Cell{BackgroundColor: &props.Color{Red: 229, Green: 231, Blue: 235}}
	case 1:
		textStyle = fontstyle.Bold
		descPrefix = "  "
	case 2:
		descPrefix = "    "
	}

	baseText := props.Text{Size: textSize, Style: textStyle, Align: align.Center}
	leftText := baseText
	leftText.Align = align.Left
	rightText := baseText
	rightText.Align = align.Right

	styled := func(c core.Col, s *props.Cell) core.Col {
		if s != nil {
			return c.WithStyle(s)
		}
		return c
	}

	qtyStr, unit := "", ""
	if r.Level == 2 {
		qtyStr = FormatQty(r.Qty)
		unit = r.Unit
	}

	cols := []core.Col{
		styled(col.New(pdfCodeCols).Add(text.New(r.Code, baseText)), rowStyle),
		styled(col.New(pdfDescCols).Add(text.New(descPrefix+r.Description, leftText)), rowStyle),
		styled(col.New(pdfQtyCols).Add(text.New(qtyStr, rightText)), rowStyle),
		styled(col.New(pdfUnitCols).Add(text.New(unit, baseText)), rowStyle),
	}

	if r.Level != 2 {
		for range bidders {
			cols = append(cols, styled(col.New(pdfBidderCols), rowStyle))
		}
	}
	for _, c := range r.Cells {
		s := rowStyle
		switch c.Origin {
		case OriginFill:
			s = &props.Cell{BackgroundColor: fillBg}
		case OriginOverride:
			s = &props.Cell{BackgroundColor: overrideBg}
		}
		cols = append(cols, styled(col.New(pdfBidderCols).Add(text.New(CellText(c, money), rightText)), s))
	}

	m.AddRows(row.New(7).Add(cols...))
}

// addTotals adds the normalized total per contractor, lowest highlighted.
func addTotals(m core.Maroto, data ExportData) {
	m.AddRows(row.New(2))

	summaryCell := &props.Cell{BackgroundColor: &props.Color{Red: 240, Green: 240, Blue: 240}}
	labelStyle := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
	valueStyle := props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Right}

	cols := []core.Col{
		col.New(pdfFixedCols).Add(text.New("Normalized Total", labelStyle)).WithStyle(summaryCell),
	}
	for i, t := range data.Totals {
		s := summaryCell
		if i == 0 {
			s = &props.Cell{BackgroundColor: lowestBg}
		}
		cols = append(cols, col.New(pdfBidderCols).Add(text.New(data.Money.Format(t), valueStyle)).WithStyle(s))
	}
	m.AddRows(row.New(8).Add(cols...))
}

// addFooter adds the legend and the generated-date line.
func addFooter(m core.Maroto, data ExportData, grid int) {
	small := props.Text{
		Size:  7,
		Align: align.Left,
		Color: &props.Color{Red: 140, Green: 140, Blue: 140},
	}
	m.AddRows(row.New(6))
	m.AddRows(
		row.New(5).Add(
			col.New(grid).Add(text.New("Amber cells are filled by normalization; blue cells are manual overrides.", small)),
		),
		row.New(5).Add(
			col.New(grid).Add(text.New(fmt.Sprintf("Generated on %s", data.CreatedDate), small)),
		),
	)
}
