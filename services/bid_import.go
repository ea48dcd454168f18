package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RowError is a single field-level error on one row of an uploaded sheet.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// BidImportResult is returned after parsing a contractor's priced BOQ sheet.
type BidImportResult struct {
	TotalRows   int           `json:"total_rows"`
	MatchedRows int           `json:"matched_rows"`
	Errors      []RowError    `json:"errors"`
	Bid         ContractorBid `json:"bid"`
}

// Bid sheet columns. "Item" matches a BOQ line-item code or id.
const (
	colItem       = "item"
	colAmount     = "amount"
	colIncluded   = "included"
	colCalculated = "calculated"
)

var bidColumnAliases = map[string]string{
	"item":       colItem,
	"code":       colItem,
	"item code":  colItem,
	"item id":    colItem,
	"amount":     colAmount,
	"price":      colAmount,
	"total":      colAmount,
	"included":   colIncluded,
	"incl":       colIncluded,
	"calculated": colCalculated,
	"qty x rate": colCalculated,
}

// parseCSV reads a CSV file and returns headers + data rows.
func parseCSV(file io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(allRows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}
	return allRows[0], allRows[1:], nil
}

// parseExcel reads an xlsx file and returns headers + data rows from the first sheet.
func parseExcel(file io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}
	return rows[0], rows[1:], nil
}

func mapBidHeaders(headers []string) []string {
	mapped := make([]string, len(headers))
	for i, h := range headers {
		mapped[i] = bidColumnAliases[strings.ToLower(strings.TrimSpace(h))]
	}
	return mapped
}

func parseYes(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "y", "yes", "true", "1", "incl", "included", "x":
		return true
	}
	return false
}

func parseAmount(v string) (float64, error) {
	v = strings.TrimSpace(v)
	v = strings.NewReplacer(",", "", "₹", "", "$", "", "£", "", "€", "").Replace(v)
	return strconv.ParseFloat(v, 64)
}

// ImportBidSheet parses an uploaded .csv or .xlsx priced BOQ for one
// contractor. Rows are matched to line items by code or id; items missing
// from the sheet are unpriced. A calculated column that disagrees with the
// amount by more than a cent records an arithmetic error.
func ImportBidSheet(n *Normalizer, contractor Contractor, fileName string, file io.Reader) (*BidImportResult, error) {
	var headers []string
	var dataRows [][]string
	var err error

	lowerName := strings.ToLower(fileName)
	switch {
	case strings.HasSuffix(lowerName, ".csv"):
		headers, dataRows, err = parseCSV(file)
	case strings.HasSuffix(lowerName, ".xlsx"):
		headers, dataRows, err = parseExcel(file)
	default:
		return nil, fmt.Errorf("unsupported file format: must be .csv or .xlsx")
	}
	if err != nil {
		return nil, err
	}

	columns := mapBidHeaders(headers)
	hasItem := false
	for _, c := range columns {
		if c == colItem {
			hasItem = true
		}
	}
	if !hasItem {
		return nil, fmt.Errorf("missing item code column")
	}

	byCode := make(map[string]string)
	for _, f := range FlattenItems(n.boq) {
		byCode[strings.ToLower(f.Item.ID)] = f.Item.ID
		if f.Item.Code != "" {
			byCode[strings.ToLower(f.Item.Code)] = f.Item.ID
		}
	}

	cells := make(map[string]Cell, len(n.ids))
	result := &BidImportResult{TotalRows: len(dataRows)}

	for rowIdx, row := range dataRows {
		rowNum := rowIdx + 2
		values := make(map[string]string, len(columns))
		for colIdx, key := range columns {
			if key == "" || colIdx >= len(row) {
				continue
			}
			values[key] = strings.TrimSpace(row[colIdx])
		}

		code := values[colItem]
		if code == "" {
			continue
		}
		itemID, ok := byCode[strings.ToLower(code)]
		if !ok {
			result.Errors = append(result.Errors, RowError{Row: rowNum, Field: "Item", Message: fmt.Sprintf("No BOQ line item with code %q", code)})
			continue
		}
		if _, dup := cells[itemID]; dup {
			result.Errors = append(result.Errors, RowError{Row: rowNum, Field: "Item", Message: fmt.Sprintf("Item %q appears more than once", code)})
			continue
		}

		if parseYes(values[colIncluded]) {
			if values[colAmount] != "" {
				result.Errors = append(result.Errors, RowError{Row: rowNum, Field: "Amount", Message: "Included items must not carry an amount"})
				continue
			}
			cells[itemID] = Included()
			result.MatchedRows++
			continue
		}

		if values[colAmount] == "" {
			cells[itemID] = Unpriced()
			result.MatchedRows++
			continue
		}
		amount, err := parseAmount(values[colAmount])
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: rowNum, Field: "Amount", Message: fmt.Sprintf("%q is not a number", values[colAmount])})
			continue
		}

		cells[itemID] = Priced(amount)
		if calcStr := values[colCalculated]; calcStr != "" {
			calc, err := parseAmount(calcStr)
			if err != nil {
				result.Errors = append(result.Errors, RowError{Row: rowNum, Field: "Calculated", Message: fmt.Sprintf("%q is not a number", calcStr)})
				continue
			}
			if RoundCents(amount) != RoundCents(calc) {
				cells[itemID] = ArithmeticError(amount, amount, calc)
			}
		}
		result.MatchedRows++
	}

	result.Bid = NewBid(contractor.ID, contractor.Name, cells).Raw(n.ids)
	return result, nil
}

// GenerateErrorReport creates a downloadable .xlsx file from import row errors.
func GenerateErrorReport(errors []RowError) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Errors"
	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DC2626"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})

	f.SetCellValue(sheet, "A1", "Row #")
	f.SetCellValue(sheet, "B1", "Field")
	f.SetCellValue(sheet, "C1", "Error")
	f.SetCellStyle(sheet, "A1", "C1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 22)
	f.SetColWidth(sheet, "C", "C", 55)

	for i, e := range errors {
		row := fmt.Sprintf("%d", i+2)
		f.SetCellValue(sheet, "A"+row, e.Row)
		f.SetCellValue(sheet, "B"+row, e.Field)
		f.SetCellValue(sheet, "C"+row, sanitizeExcelCell(e.Message))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write error report: %w", err)
	}
	return buf.Bytes(), nil
}
