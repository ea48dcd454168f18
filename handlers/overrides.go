package handlers

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"tendereval/config"
	"tendereval/services"
	"tendereval/templates"
)

type overridePayload struct {
	ContractorID string `json:"contractor_id"`
	ItemID       string `json:"item_id"`
	Value        any    `json:"value"`
}

type overridesResponse struct {
	Overrides []services.OverrideEntry  `json:"overrides"`
	Totals    []services.ContractorTotal `json:"totals"`
}

// respondOverrides re-normalizes after an override edit. HTMX callers get
// the comparison fragment, everyone else the overrides and new totals.
func respondOverrides(e *core.RequestEvent, app *pocketbase.PocketBase, cfg *config.Config, ev *evaluation, toast string) error {
	TotalsChanged(e, ev.Record.Id)
	if isHTMX(e) {
		data, err := comparisonData(app, cfg, ev)
		if err != nil {
			return ErrorToast(e, statusFor(err), "Could not build the comparison")
		}
		SetToast(e, "success", toast)
		return templates.ComparisonContent(data).Render(e.Request.Context(), e.Response)
	}

	cmp, err := ev.compare(ev.Settings)
	if err != nil {
		return respondError(e, "overrides", err)
	}
	return e.JSON(http.StatusOK, overridesResponse{
		Overrides: ev.Overrides.Entries(),
		Totals:    cmp.Totals(),
	})
}

func contractorIDs(bids []services.Bid) []string {
	ids := make([]string, len(bids))
	for i, b := range bids {
		ids[i] = b.ContractorID
	}
	return ids
}

// checkOverride resolves the payload against the evaluation's bidders and
// BOQ and returns the numeric value.
func checkOverride(ev *evaluation, p overridePayload) (float64, error) {
	verr := &services.ValidationError{}
	if !slices.Contains(contractorIDs(ev.Bids), p.ContractorID) {
		verr.Errors = append(verr.Errors, services.FieldError{Field: "contractor_id", Message: "unknown contractor"})
	}
	if _, ok := ev.Normalizer.Item(p.ItemID); !ok {
		verr.Errors = append(verr.Errors, services.FieldError{Field: "item_id", Message: "unknown line item"})
	}
	value, err := services.OverrideValue(p.Value)
	if err != nil {
		verr.Errors = append(verr.Errors, services.FieldError{Field: "value", Message: err.Error()})
	}
	if len(verr.Errors) > 0 {
		return 0, verr
	}
	return value, nil
}

// HandleOverrideSet stores an evaluator price for one contractor and line
// item. The value may be a JSON number or a numeric string.
func HandleOverrideSet(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ev, err := evaluationFor(e, app, cfg)
		if err != nil {
			return respondError(e, "override_set", err)
		}

		var p overridePayload
		if strings.HasPrefix(e.Request.Header.Get("Content-Type"), "application/json") {
			if err := json.NewDecoder(e.Request.Body).Decode(&p); err != nil {
				return respondError(e, "override_set", &services.ValidationError{
					Errors: []services.FieldError{{Field: "(body)", Message: err.Error()}},
				})
			}
		} else {
			p.ContractorID = e.Request.FormValue("contractor_id")
			p.ItemID = e.Request.FormValue("item_id")
			p.Value = e.Request.FormValue("value")
		}

		value, err := checkOverride(ev, p)
		if err != nil {
			if isHTMX(e) {
				return ErrorToast(e, http.StatusBadRequest, "Override must be a number for a known contractor and item")
			}
			return respondError(e, "override_set", err)
		}

		ev.Overrides.Set(p.ContractorID, p.ItemID, value)
		if err := ev.save(app); err != nil {
			app.Logger().Error("override_set: save failed", "id", ev.Record.Id, "error", err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to save override")
		}
		app.Logger().Info("override_set: stored", "id", ev.Record.Id, "contractor", p.ContractorID, "item", p.ItemID)

		return respondOverrides(e, app, cfg, ev, "Override saved")
	}
}

// HandleOverrideDelete removes one override; the cell falls back to its
// submitted or filled price.
func HandleOverrideDelete(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ev, err := evaluationFor(e, app, cfg)
		if err != nil {
			return respondError(e, "override_delete", err)
		}

		contractorID := e.Request.PathValue("contractorId")
		itemID := e.Request.PathValue("itemId")
		if _, ok := ev.Overrides.Lookup(contractorID, itemID); !ok {
			if isHTMX(e) {
				return ErrorToast(e, http.StatusNotFound, "Override not found")
			}
			return e.JSON(http.StatusNotFound, map[string]any{"message": "override not found"})
		}

		ev.Overrides.Delete(contractorID, itemID)
		if err := ev.save(app); err != nil {
			app.Logger().Error("override_delete: save failed", "id", ev.Record.Id, "error", err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to remove override")
		}

		return respondOverrides(e, app, cfg, ev, "Override removed")
	}
}
