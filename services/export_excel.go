package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// GenerateExcel creates the bid comparison workbook and returns its bytes.
// Prices are written as numbers; filled cells are shaded amber, overridden
// cells blue, and the lowest bidder's total green.
func GenerateExcel(data ExportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := excelSheetName(data.Title)

	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	// Fixed columns A-D, then one per contractor.
	colCount := 4 + len(data.Contractors)
	lastCol, err := excelize.ColumnNumberToName(colCount)
	if err != nil {
		return nil, fmt.Errorf("last column: %w", err)
	}

	widths := []float64{12, 48, 10, 8}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, col, col, w); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}
	if len(data.Contractors) > 0 {
		if err := f.SetColWidth(sheetName, "E", lastCol, 20); err != nil {
			return nil, fmt.Errorf("set contractor col width: %w", err)
		}
	}

	// ── Styles ──────────────────────────────────────────────────────────

	numFmt := "#,##0.00"

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
	})
	if err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}

	subtitleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 11},
	})
	if err != nil {
		return nil, fmt.Errorf("create subtitle style: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	divisionStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#E5E7EB"}, Pattern: 1},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create division style: %w", err)
	}

	sectionStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 10},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create section style: %w", err)
	}

	itemStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 10},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create item style: %w", err)
	}

	priceStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Size: 10},
		Border:       thinBorders(),
		CustomNumFmt: &numFmt,
	})
	if err != nil {
		return nil, fmt.Errorf("create price style: %w", err)
	}

	fillStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Size: 10, Italic: true},
		Fill:         excelize.Fill{Type: "pattern", Color: []string{"#FEF3C7"}, Pattern: 1},
		Border:       thinBorders(),
		CustomNumFmt: &numFmt,
	})
	if err != nil {
		return nil, fmt.Errorf("create fill style: %w", err)
	}

	overrideStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Size: 10, Bold: true},
		Fill:         excelize.Fill{Type: "pattern", Color: []string{"#DBEAFE"}, Pattern: 1},
		Border:       thinBorders(),
		CustomNumFmt: &numFmt,
	})
	if err != nil {
		return nil, fmt.Errorf("create override style: %w", err)
	}

	totalStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true, Size: 11},
		Border:       thinBorders(),
		CustomNumFmt: &numFmt,
	})
	if err != nil {
		return nil, fmt.Errorf("create total style: %w", err)
	}

	lowestStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true, Size: 11, Color: "#166534"},
		Fill:         excelize.Fill{Type: "pattern", Color: []string{"#DCFCE7"}, Pattern: 1},
		Border:       thinBorders(),
		CustomNumFmt: &numFmt,
	})
	if err != nil {
		return nil, fmt.Errorf("create lowest style: %w", err)
	}

	// ── Header Rows (1-3) ───────────────────────────────────────────────

	if err := f.MergeCell(sheetName, "A1", lastCol+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheetName, "A1", sanitizeExcelCell(data.Title))
	f.SetCellStyle(sheetName, "A1", lastCol+"1", titleStyle)

	sub := "Date: " + data.CreatedDate
	if data.ReferenceNumber != "" {
		sub = "Ref: " + data.ReferenceNumber + "    " + sub
	}
	if err := f.MergeCell(sheetName, "A2", lastCol+"2"); err != nil {
		return nil, fmt.Errorf("merge ref: %w", err)
	}
	f.SetCellValue(sheetName, "A2", sanitizeExcelCell(sub))
	f.SetCellStyle(sheetName, "A2", lastCol+"2", subtitleStyle)

	if err := f.MergeCell(sheetName, "A3", lastCol+"3"); err != nil {
		return nil, fmt.Errorf("merge settings: %w", err)
	}
	f.SetCellValue(sheetName, "A3", settingsLine(data.Settings))
	f.SetCellStyle(sheetName, "A3", lastCol+"3", subtitleStyle)

	// ── Row 5: Column Headers ───────────────────────────────────────────

	headers := append([]string{"Code", "Description", "Qty", "Unit"}, data.Contractors...)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 5)
		f.SetCellValue(sheetName, cell, sanitizeExcelCell(h))
	}
	f.SetCellStyle(sheetName, "A5", lastCol+"5", headerStyle)

	// ── Data Rows (starting row 6) ──────────────────────────────────────

	row := 6
	for _, r := range data.Rows {
		rowStr := fmt.Sprintf("%d", row)
		f.SetCellValue(sheetName, "A"+rowStr, sanitizeExcelCell(r.Code))

		desc := r.Description
		if r.Level == 2 {
			desc = "  " + desc
		}
		f.SetCellValue(sheetName, "B"+rowStr, sanitizeExcelCell(desc))

		switch r.Level {
		case 0:
			f.SetCellStyle(sheetName, "A"+rowStr, lastCol+rowStr, divisionStyle)
		case 1:
			f.SetCellStyle(sheetName, "A"+rowStr, lastCol+rowStr, sectionStyle)
		default:
			f.SetCellValue(sheetName, "C"+rowStr, r.Qty)
			f.SetCellValue(sheetName, "D"+rowStr, sanitizeExcelCell(r.Unit))
			f.SetCellStyle(sheetName, "A"+rowStr, "D"+rowStr, itemStyle)

			for i, c := range r.Cells {
				cell, _ := excelize.CoordinatesToCellName(5+i, row)
				style := priceStyle
				switch {
				case c.Origin == OriginIncluded:
					f.SetCellValue(sheetName, cell, "Incl.")
				case c.Price == nil:
					f.SetCellValue(sheetName, cell, "-")
				default:
					f.SetCellValue(sheetName, cell, *c.Price)
				}
				switch c.Origin {
				case OriginFill:
					style = fillStyle
				case OriginOverride:
					style = overrideStyle
				}
				f.SetCellStyle(sheetName, cell, cell, style)
			}
		}
		row++
	}

	// ── Totals Row ──────────────────────────────────────────────────────

	totalRow := fmt.Sprintf("%d", row)
	f.SetCellValue(sheetName, "B"+totalRow, "Normalized Total")
	f.SetCellStyle(sheetName, "A"+totalRow, "D"+totalRow, totalStyle)
	for i, t := range data.Totals {
		cell, _ := excelize.CoordinatesToCellName(5+i, row)
		f.SetCellValue(sheetName, cell, t)
		style := totalStyle
		if i == 0 {
			style = lowestStyle
		}
		f.SetCellStyle(sheetName, cell, cell, style)
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		XSplit:      2,
		YSplit:      5,
		TopLeftCell: "C6",
		ActivePane:  "bottomRight",
	}); err != nil {
		return nil, fmt.Errorf("freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

var sheetNameReplacer = strings.NewReplacer(
	":", "-", "\\", "-", "/", "-", "?", "-", "*", "-", "[", "(", "]", ")",
)

// excelSheetName turns a title into a valid sheet name: no : \ / ? * [ ],
// no leading or trailing apostrophe, at most 31 characters.
func excelSheetName(title string) string {
	name := sheetNameReplacer.Replace(title)
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	name = strings.Trim(strings.TrimSpace(name), "'")
	if name == "" {
		return "Comparison"
	}
	return name
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote. Excel interprets cells starting with =, +, -,
// @, \t or \r as formulas, which can be abused for code execution or data theft.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns a slice of excelize.Border for thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1, // thin
		}
	}
	return borders
}
