package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tendereval/services"
	"tendereval/testhelpers"
)

func multipartBidRequest(t *testing.T, contractorID, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("contractor_id", contractorID); err != nil {
		t.Fatal(err)
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte(content))
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/evaluations/x/bids/import", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHandleBidImport_NewContractor(t *testing.T) {
	f := newEvalFixture(t)
	delta := testhelpers.CreateTestContractor(t, f.app, f.pkg.Id, "Delta Projects")

	csv := "Item,Amount,Included\n01.01.001,1100,\n01.01.002,450,\n02.01.001,,yes\n02.01.002,3100,\n"
	req := multipartBidRequest(t, delta.Id, "delta.csv", csv)
	rec := f.call(t, HandleBidImport(f.app, f.cfg), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result services.BidImportResult
	decodeJSON(t, rec.Body, &result)
	if result.MatchedRows != 4 {
		t.Errorf("matched rows = %d, want 4", result.MatchedRows)
	}

	ev := f.reload(t)
	if len(ev.Bids) != 4 {
		t.Fatalf("expected 4 bids after import, got %d", len(ev.Bids))
	}
	imported := ev.Bids[3]
	if imported.ContractorID != delta.Id || imported.ContractorName != "Delta Projects" {
		t.Errorf("imported bid = %s %q", imported.ContractorID, imported.ContractorName)
	}
	if imported.Cell("item-3").Kind() != services.CellIncluded {
		t.Errorf("item-3 kind = %v, want included", imported.Cell("item-3").Kind())
	}
}

func TestHandleBidImport_ReplacesExistingBid(t *testing.T) {
	f := newEvalFixture(t)

	csv := "Code,Price\n01.01.001,950\n01.01.002,420\n02.01.001,510\n02.01.002,3150\n"
	req := multipartBidRequest(t, f.beta.Id, "beta.csv", csv)
	rec := f.call(t, HandleBidImport(f.app, f.cfg), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	ev := f.reload(t)
	if len(ev.Bids) != 3 {
		t.Fatalf("expected 3 bids, got %d", len(ev.Bids))
	}
	if p, _ := ev.Bids[1].Cell("item-1").Price(); p != 950 {
		t.Errorf("beta item-1 = %v, want 950", p)
	}
	if ev.Bids[1].Cell("item-4").Kind() != services.CellPriced {
		t.Error("beta item-4 should no longer be an arithmetic error")
	}
}

func TestHandleBidImport_RowErrorsNotStored(t *testing.T) {
	f := newEvalFixture(t)

	csv := "Item,Amount\n01.01.001,abc\n99.99.999,10\n"
	req := multipartBidRequest(t, f.alpha.Id, "alpha.csv", csv)
	rec := f.call(t, HandleBidImport(f.app, f.cfg), req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}

	var result services.BidImportResult
	decodeJSON(t, rec.Body, &result)
	if len(result.Errors) != 2 {
		t.Errorf("expected 2 row errors, got %d", len(result.Errors))
	}
	if p, _ := f.reload(t).Bids[0].Cell("item-1").Price(); p != 1000 {
		t.Errorf("alpha item-1 = %v, want unchanged 1000", p)
	}
}

func TestHandleBidImport_Rejections(t *testing.T) {
	f := newEvalFixture(t)

	tests := []struct {
		name       string
		contractor string
		filename   string
		content    string
		want       int
	}{
		{"unknown contractor", "nobody", "bid.csv", "Item,Amount\n01.01.001,1\n", http.StatusNotFound},
		{"unsupported format", f.alpha.Id, "bid.txt", "Item,Amount\n01.01.001,1\n", http.StatusBadRequest},
		{"missing item column", f.alpha.Id, "bid.csv", "Amount\n1\n", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := multipartBidRequest(t, tt.contractor, tt.filename, tt.content)
			rec := f.call(t, HandleBidImport(f.app, f.cfg), req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestHandleBidImport_NoBOQ(t *testing.T) {
	f := newEvalFixture(t)
	empty := testhelpers.CreateTestCommercialEvaluation(t, f.app, f.asset.Id, 2, nil, nil)

	req := multipartBidRequest(t, f.alpha.Id, "bid.csv", "Item,Amount\n01.01.001,1\n")
	req.SetPathValue("id", empty.Id)
	rec := f.call(t, HandleBidImport(f.app, f.cfg), req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleBidImportErrorReport(t *testing.T) {
	f := newEvalFixture(t)

	body := `[{"row":2,"field":"Amount","message":"\"abc\" is not a number"}]`
	req := httptest.NewRequest(http.MethodPost, "/api/evaluations/x/bids/import/errors", strings.NewReader(body))
	rec := f.call(t, HandleBidImportErrorReport(f.app), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("content type = %q", ct)
	}
	if rec.Body.Len() == 0 {
		t.Error("expected a non-empty workbook")
	}
}
