package services

import "fmt"

// ExportCell is one contractor's price in the comparison export.
type ExportCell struct {
	Price  *float64
	Origin PriceOrigin
}

// ExportRow is one line item in the comparison export.
type ExportRow struct {
	Level       int    // 0 = division, 1 = section, 2 = line item
	ItemID      string // line items only
	Code        string // hierarchical code, e.g. "02.01.003"
	Description string
	Qty         float64
	Unit        string
	Cells       []ExportCell // one per ExportData.Contractors, same order
}

// ExportData holds all data needed for a comparison export.
type ExportData struct {
	Title           string
	ReferenceNumber string
	CreatedDate     string
	Settings        NormalizationSettings
	Money           MoneyFormat
	Contractors     []string // column headings, lowest bidder first
	ContractorIDs   []string
	Rows            []ExportRow
	Totals          []float64
}

// BuildExportData lays a comparison out as rows: division and section
// headings followed by their line items, contractors in ranking order.
func BuildExportData(title, ref, date string, money MoneyFormat, cmp *Comparison) ExportData {
	data := ExportData{
		Title:           title,
		ReferenceNumber: ref,
		CreatedDate:     date,
		Settings:        cmp.Settings,
		Money:           money,
	}
	for _, b := range cmp.Bids {
		data.Contractors = append(data.Contractors, b.ContractorName)
		data.ContractorIDs = append(data.ContractorIDs, b.ContractorID)
		data.Totals = append(data.Totals, b.TotalAmount)
	}

	lastDivision, lastSection := "", ""
	for i, f := range cmp.Items {
		if f.DivisionCode+f.DivisionName != lastDivision {
			lastDivision = f.DivisionCode + f.DivisionName
			lastSection = ""
			data.Rows = append(data.Rows, ExportRow{Level: 0, Code: f.DivisionCode, Description: f.DivisionName})
		}
		if f.SectionCode+f.SectionName != lastSection {
			lastSection = f.SectionCode + f.SectionName
			data.Rows = append(data.Rows, ExportRow{Level: 1, Code: f.SectionCode, Description: f.SectionName})
		}

		row := ExportRow{
			Level:       2,
			ItemID:      f.Item.ID,
			Code:        f.Item.Code,
			Description: f.Item.Description,
			Qty:         f.Item.Quantity,
			Unit:        f.Item.Unit,
			Cells:       make([]ExportCell, 0, len(cmp.Bids)),
		}
		for _, b := range cmp.Bids {
			// Lines are in flattened BOQ order, same as cmp.Items.
			var line NormalizedLine
			if i < len(b.Lines) && b.Lines[i].ItemID == f.Item.ID {
				line = b.Lines[i]
			} else {
				line, _ = b.Line(f.Item.ID)
			}
			row.Cells = append(row.Cells, ExportCell{Price: line.Price, Origin: line.Origin})
		}
		data.Rows = append(data.Rows, row)
	}
	return data
}

// CellText renders a price cell for the exports.
func CellText(c ExportCell, money MoneyFormat) string {
	switch {
	case c.Origin == OriginIncluded:
		return "Incl."
	case c.Price == nil:
		return "-"
	}
	return money.Format(*c.Price)
}

// settingsLine describes the normalization settings under the title.
func settingsLine(s NormalizationSettings) string {
	yn := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}
	return fmt.Sprintf("Normalization: unpriced %s, arithmetic errors %s, fill by %s",
		yn(s.NormalizeUnpriced), yn(s.NormalizeArithmeticErrors), s.Algorithm)
}
