package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"tendereval/config"
	"tendereval/services"
)

type contractorPTCSummary struct {
	services.ContractorPTCs
	Summary []services.PTCCount `json:"summary"`
}

func ptcResponse(all []services.ContractorPTCs) []contractorPTCSummary {
	out := make([]contractorPTCSummary, 0, len(all))
	for _, cp := range all {
		out = append(out, contractorPTCSummary{ContractorPTCs: cp, Summary: services.SummarizePTCs(cp)})
	}
	return out
}

// HandlePTCGenerate raises clarification queries from the raw bids. Queries
// already answered or closed keep their state; manual deviations are kept.
// Route: POST /api/evaluations/{id}/ptcs/generate
func HandlePTCGenerate(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ev, err := evaluationFor(e, app, cfg)
		if err != nil {
			return respondError(e, "ptc_generate", err)
		}
		if len(ev.Bids) == 0 {
			return e.JSON(http.StatusOK, ptcResponse(ev.PTCs))
		}

		generated := services.GeneratePTCs(ev.Normalizer, ev.Bids, cfg.PTC.DeviationThreshold)
		ev.PTCs = services.MergePTCs(ev.PTCs, generated)
		if err := ev.save(app); err != nil {
			app.Logger().Error("ptc_generate: save failed", "id", ev.Record.Id, "error", err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to save clarifications")
		}

		SetToast(e, "success", "Clarifications generated")
		return e.JSON(http.StatusOK, ptcResponse(ev.PTCs))
	}
}

// HandlePTCList returns every query of the evaluation grouped by contractor
// with pending/closed counts per category.
func HandlePTCList(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ev, err := evaluationFor(e, app, cfg)
		if err != nil {
			return respondError(e, "ptc_list", err)
		}
		return e.JSON(http.StatusOK, ptcResponse(ev.PTCs))
	}
}

type ptcPatch struct {
	Status   *services.PTCStatus `json:"status"`
	Response *string             `json:"response"`
}

// HandlePTCUpdate sets a query's status and/or the contractor's response.
// Route: PATCH /api/evaluations/{id}/ptcs/{ptcId}
func HandlePTCUpdate(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ev, err := evaluationFor(e, app, cfg)
		if err != nil {
			return respondError(e, "ptc_update", err)
		}

		ptcID := e.Request.PathValue("ptcId")
		ci, ii, ok := services.FindPTC(ev.PTCs, ptcID)
		if !ok {
			return e.JSON(http.StatusNotFound, map[string]any{"message": "clarification not found"})
		}

		var p ptcPatch
		if err := json.NewDecoder(e.Request.Body).Decode(&p); err != nil {
			return respondError(e, "ptc_update", &services.ValidationError{
				Errors: []services.FieldError{{Field: "(body)", Message: err.Error()}},
			})
		}

		item := ev.PTCs[ci].Items[ii]
		if p.Status != nil && *p.Status != item.Status {
			candidate := item
			candidate.Status = *p.Status
			if err := services.ValidatePTC(candidate); err != nil {
				return respondError(e, "ptc_update", err)
			}
			item, _ = services.ToggleStatus(ev.PTCs, ptcID)
		}
		if p.Response != nil {
			item, _ = services.SetResponse(ev.PTCs, ptcID, *p.Response)
		}

		if err := ev.save(app); err != nil {
			app.Logger().Error("ptc_update: save failed", "id", ev.Record.Id, "error", err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to save clarification")
		}
		return e.JSON(http.StatusOK, item)
	}
}

type deviationPayload struct {
	ItemID string `json:"item_id"`
	Query  string `json:"query"`
}

// HandlePTCAddDeviation raises a manual deviations query with one
// contractor.
// Route: POST /api/evaluations/{id}/ptcs/{contractorId}/deviations
func HandlePTCAddDeviation(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ev, err := evaluationFor(e, app, cfg)
		if err != nil {
			return respondError(e, "ptc_deviation", err)
		}

		contractor, ok := ev.contractor(e.Request.PathValue("contractorId"))
		if !ok {
			return e.JSON(http.StatusNotFound, map[string]any{"message": "contractor has no bid in this evaluation"})
		}

		var p deviationPayload
		if err := json.NewDecoder(e.Request.Body).Decode(&p); err != nil {
			return respondError(e, "ptc_deviation", &services.ValidationError{
				Errors: []services.FieldError{{Field: "(body)", Message: err.Error()}},
			})
		}
		if p.ItemID != "" {
			if _, ok := ev.Normalizer.Item(p.ItemID); !ok {
				return respondError(e, "ptc_deviation", &services.ValidationError{
					Errors: []services.FieldError{{Field: "item_id", Message: "unknown line item"}},
				})
			}
		}

		var item services.PTCItem
		ev.PTCs, item = services.AddDeviation(ev.PTCs, contractor, p.ItemID, p.Query)
		if err := services.ValidatePTC(item); err != nil {
			return respondError(e, "ptc_deviation", err)
		}

		if err := ev.save(app); err != nil {
			app.Logger().Error("ptc_deviation: save failed", "id", ev.Record.Id, "error", err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to save clarification")
		}
		return e.JSON(http.StatusCreated, item)
	}
}
