package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"tendereval/config"
	"tendereval/services"
)

// HandleBidImport parses an uploaded .csv or .xlsx priced BOQ for one
// contractor and stores it as that contractor's bid, replacing any earlier
// one. A sheet with row errors is not stored: the response is 422 with the
// errors.
// Route: POST /api/evaluations/{id}/bids/import
func HandleBidImport(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ev, err := evaluationFor(e, app, cfg)
		if err != nil {
			return respondError(e, "bid_import", err)
		}
		if len(ev.BOQ) == 0 {
			return ErrorToast(e, http.StatusBadRequest, "Upload a BOQ before importing bids")
		}

		// Parse multipart form (max 10MB)
		if err := e.Request.ParseMultipartForm(10 << 20); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "File too large or invalid form data")
		}

		contractorID := e.Request.FormValue("contractor_id")
		contractorRec, err := app.FindRecordById("contractors", contractorID)
		if err != nil {
			return ErrorToast(e, http.StatusNotFound, "Contractor not found")
		}

		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Please select a file to upload")
		}
		defer file.Close()

		contractor := services.Contractor{ID: contractorRec.Id, Name: contractorRec.GetString("name")}
		result, err := services.ImportBidSheet(ev.Normalizer, contractor, header.Filename, file)
		if err != nil {
			app.Logger().Warn("bid_import: rejected sheet", "file", header.Filename, "error", err)
			return ErrorToast(e, http.StatusBadRequest, err.Error())
		}
		if len(result.Errors) > 0 {
			return e.JSON(http.StatusUnprocessableEntity, result)
		}

		bid, err := services.ParseBid(result.Bid)
		if err != nil {
			return respondError(e, "bid_import", err)
		}

		replaced := false
		for i := range ev.Raws {
			if ev.Raws[i].ContractorID == contractor.ID {
				ev.Raws[i] = result.Bid
				ev.Bids[i] = bid
				replaced = true
			}
		}
		if !replaced {
			ev.Raws = append(ev.Raws, result.Bid)
			ev.Bids = append(ev.Bids, bid)
		}

		if err := ev.save(app); err != nil {
			app.Logger().Error("bid_import: save failed", "id", ev.Record.Id, "error", err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to save bid")
		}
		app.Logger().Info("bid_import: stored bid",
			"id", ev.Record.Id, "contractor", contractor.ID, "rows", result.MatchedRows, "replaced", replaced)

		TotalsChanged(e, ev.Record.Id)
		SetToast(e, "success", fmt.Sprintf("Imported %d priced rows for %s", result.MatchedRows, contractor.Name))
		return e.JSON(http.StatusOK, result)
	}
}

// HandleBidImportErrorReport downloads posted import row errors as an
// Excel file.
// Route: POST /api/evaluations/{id}/bids/import/errors
func HandleBidImportErrorReport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var rowErrors []services.RowError
		if err := json.NewDecoder(e.Request.Body).Decode(&rowErrors); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid error data")
		}

		xlsxBytes, err := services.GenerateErrorReport(rowErrors)
		if err != nil {
			app.Logger().Error("bid_import_errors: generate failed", "error", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		filename := fmt.Sprintf("Bid_Import_Errors_%s.xlsx", time.Now().Format("2006-01-02"))
		e.Response.Header().Set("Content-Type",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		e.Response.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s"`, filename))
		e.Response.Write(xlsxBytes)
		return nil
	}
}
