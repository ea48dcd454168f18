package services

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestParseCSV_Valid(t *testing.T) {
	input := "Item,Amount\n01.01.001,100\n01.01.002,200\n"
	headers, rows, err := parseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parseCSV() error = %v", err)
	}
	if len(headers) != 2 {
		t.Errorf("expected 2 headers, got %d", len(headers))
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 data rows, got %d", len(rows))
	}
}

func TestParseCSV_HeaderOnly(t *testing.T) {
	_, _, err := parseCSV(strings.NewReader("Item,Amount\n"))
	if err == nil {
		t.Fatal("expected error for header-only file")
	}
	if !strings.Contains(err.Error(), "at least one data row") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMapBidHeaders(t *testing.T) {
	got := mapBidHeaders([]string{" Item Code ", "PRICE", "Incl", "Qty x Rate", "Remarks"})
	want := []string{colItem, colAmount, colIncluded, colCalculated, ""}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1,23,456.78", 123456.78, true},
		{"₹ 500", 500, true},
		{"$1,000", 1000, true},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, err := parseAmount(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("parseAmount(%q) error = %v", tt.in, err)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("parseAmount(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestImportBidSheet_CSV(t *testing.T) {
	n := NewNormalizer(twoDivisionBOQ())
	input := strings.Join([]string{
		"Item Code,Amount,Included,Calculated",
		"01.01.001,\"1,000\",,1000",
		"01.01.002,,,",
		"item-3,,yes,",
		"02.01.002,3500,,3200",
		"99.99.999,10,,",
	}, "\n")

	res, err := ImportBidSheet(n, Contractor{ID: "c-x", Name: "Xeno"}, "bid.csv", strings.NewReader(input))
	if err != nil {
		t.Fatalf("ImportBidSheet() error = %v", err)
	}
	if res.TotalRows != 5 || res.MatchedRows != 4 {
		t.Errorf("rows = %d/%d, want 4/5", res.MatchedRows, res.TotalRows)
	}
	if len(res.Errors) != 1 || res.Errors[0].Row != 6 {
		t.Fatalf("expected one error on row 6, got %+v", res.Errors)
	}

	bid := res.Bid
	if bid.ContractorID != "c-x" {
		t.Errorf("contractor = %q", bid.ContractorID)
	}
	if p := bid.Prices["item-1"]; p == nil || *p != 1000 {
		t.Errorf("item-1 price = %v", p)
	}
	if bid.Prices["item-2"] != nil {
		t.Error("item-2 should be unpriced")
	}
	if len(bid.IncludedItems) != 1 || bid.IncludedItems[0] != "item-3" {
		t.Errorf("included = %v", bid.IncludedItems)
	}
	d, ok := bid.ArithmeticErrors["item-4"]
	if !ok || d.Submitted != 3500 || d.Calculated != 3200 {
		t.Errorf("item-4 arithmetic error = %+v", d)
	}
	if bid.TotalAmount != 4500 {
		t.Errorf("total = %v, want 4500", bid.TotalAmount)
	}
}

func TestImportBidSheet_Rejections(t *testing.T) {
	n := NewNormalizer(twoDivisionBOQ())
	input := "Item,Amount,Included\n01.01.001,10,yes\n01.01.002,ten,\n01.01.002,20,\n01.01.002,30,\n"

	res, err := ImportBidSheet(n, Contractor{ID: "c"}, "bid.csv", strings.NewReader(input))
	if err != nil {
		t.Fatalf("ImportBidSheet() error = %v", err)
	}
	if len(res.Errors) != 3 {
		t.Fatalf("expected 3 errors, got %+v", res.Errors)
	}
	if res.Errors[0].Field != "Amount" || res.Errors[2].Field != "Item" {
		t.Errorf("unexpected errors: %+v", res.Errors)
	}
}

func TestImportBidSheet_MissingItemColumn(t *testing.T) {
	n := NewNormalizer(twoDivisionBOQ())
	_, err := ImportBidSheet(n, Contractor{ID: "c"}, "bid.csv", strings.NewReader("Amount\n10\n"))
	if err == nil || !strings.Contains(err.Error(), "item code") {
		t.Errorf("expected missing column error, got %v", err)
	}
}

func TestImportBidSheet_UnsupportedFormat(t *testing.T) {
	n := NewNormalizer(twoDivisionBOQ())
	_, err := ImportBidSheet(n, Contractor{ID: "c"}, "bid.pdf", strings.NewReader(""))
	if err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestImportBidSheet_Excel(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	f.SetCellValue(sheet, "A1", "Code")
	f.SetCellValue(sheet, "B1", "Amount")
	f.SetCellValue(sheet, "A2", "02.01.001")
	f.SetCellValue(sheet, "B2", 640)
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	f.Close()

	res, err := ImportBidSheet(NewNormalizer(twoDivisionBOQ()), Contractor{ID: "c"}, "Bid.XLSX", &buf)
	if err != nil {
		t.Fatalf("ImportBidSheet() error = %v", err)
	}
	if p := res.Bid.Prices["item-3"]; p == nil || *p != 640 {
		t.Errorf("item-3 price = %v", p)
	}
}

func TestGenerateErrorReport(t *testing.T) {
	data, err := GenerateErrorReport([]RowError{
		{Row: 2, Field: "Item", Message: "=HYPERLINK(\"x\")"},
	})
	if err != nil {
		t.Fatalf("GenerateErrorReport() error = %v", err)
	}
	f, err := excelize.OpenReader(bytesReader(data))
	if err != nil {
		t.Fatalf("not a valid xlsx: %v", err)
	}
	defer f.Close()

	msg, _ := f.GetCellValue("Errors", "C2")
	if !strings.HasPrefix(msg, "'=") {
		t.Errorf("formula not sanitized: %q", msg)
	}
}
