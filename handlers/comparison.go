package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"tendereval/config"
	"tendereval/services"
	"tendereval/templates"
)

type comparisonResponse struct {
	EvaluationID string `json:"evaluationId"`
	RoundNumber  int    `json:"roundNumber"`
	*services.Comparison
	Totals []services.ContractorTotal `json:"totals"`
}

func emptyComparison(ev *evaluation, settings services.NormalizationSettings) *services.Comparison {
	return &services.Comparison{
		Settings:  settings,
		Bids:      []services.NormalizedBid{},
		Fills:     map[string]float64{},
		Issues:    []services.CellIssue{},
		Overrides: ev.Overrides.Entries(),
	}
}

// HandleComparisonJSON returns the normalized bids of one evaluation, lowest
// total first. Query parameters algorithm, normalizeUnpriced and
// normalizeArithmeticErrors override the stored settings for this call only.
func HandleComparisonJSON(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ev, err := evaluationFor(e, app, cfg)
		if err != nil {
			return respondError(e, "comparison", err)
		}

		settings, err := settingsFromQuery(e.Request.URL.Query(), ev.Settings)
		if err != nil {
			return respondError(e, "comparison", err)
		}

		cmp, err := ev.compare(settings)
		if errors.Is(err, services.ErrNoData) {
			cmp = emptyComparison(ev, settings)
		} else if err != nil {
			return respondError(e, "comparison", err)
		}

		return e.JSON(http.StatusOK, comparisonResponse{
			EvaluationID: ev.Record.Id,
			RoundNumber:  ev.Record.GetInt("round_number"),
			Comparison:   cmp,
			Totals:       cmp.Totals(),
		})
	}
}

// comparisonData builds the view model shared by the comparison page and
// the exports.
func comparisonData(app *pocketbase.PocketBase, cfg *config.Config, ev *evaluation) (templates.ComparisonData, error) {
	cmp, err := ev.compare(ev.Settings)
	if errors.Is(err, services.ErrNoData) {
		cmp = emptyComparison(ev, ev.Settings)
	} else if err != nil {
		return templates.ComparisonData{}, err
	}

	title, ref := exportHeader(app, ev.Record)
	data := templates.ComparisonData{
		EvaluationID: ev.Record.Id,
		Export:       services.BuildExportData(title, ref, createdDate(ev.Record), cfg.MoneyFormat(), cmp),
		Issues:       make(map[string]string, len(cmp.Issues)),
	}
	for _, is := range cmp.Issues {
		data.Issues[is.Key()] = is.KindName
	}
	return data, nil
}

// HandleComparisonPage renders the comparison grid. HTMX requests get the
// content fragment only.
func HandleComparisonPage(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ev, err := evaluationFor(e, app, cfg)
		if err != nil {
			app.Logger().Warn("comparison_page: could not load evaluation", "id", e.Request.PathValue("id"), "error", err)
			return ErrorToast(e, statusFor(err), "Evaluation could not be loaded")
		}

		data, err := comparisonData(app, cfg, ev)
		if err != nil {
			app.Logger().Error("comparison_page: build failed", "id", ev.Record.Id, "error", err)
			return ErrorToast(e, statusFor(err), "Could not build the comparison")
		}

		var component templ.Component
		if isHTMX(e) {
			component = templates.ComparisonContent(data)
		} else {
			component = templates.ComparisonPage(data)
		}
		return component.Render(e.Request.Context(), e.Response)
	}
}

// settingsPayload is the JSON body of a settings update. Omitted fields
// keep their stored value.
type settingsPayload struct {
	NormalizeUnpriced         *bool   `json:"normalizeUnpriced"`
	NormalizeArithmeticErrors *bool   `json:"normalizeArithmeticErrors"`
	Algorithm                 *string `json:"algorithm"`
}

func (p settingsPayload) values() url.Values {
	v := url.Values{}
	if p.NormalizeUnpriced != nil {
		v.Set("normalizeUnpriced", strconv.FormatBool(*p.NormalizeUnpriced))
	}
	if p.NormalizeArithmeticErrors != nil {
		v.Set("normalizeArithmeticErrors", strconv.FormatBool(*p.NormalizeArithmeticErrors))
	}
	if p.Algorithm != nil {
		v.Set("algorithm", *p.Algorithm)
	}
	return v
}

// lastValues keeps the last value of each form field. The settings form
// pairs every checkbox with a hidden "false" input of the same name.
func lastValues(form url.Values) url.Values {
	out := url.Values{}
	for k, vs := range form {
		if len(vs) > 0 {
			out.Set(k, vs[len(vs)-1])
		}
	}
	return out
}

// HandleSettingsUpdate stores new normalization settings on an evaluation.
// Accepts a JSON body or the comparison page's form; HTMX callers get the
// re-rendered comparison fragment back.
func HandleSettingsUpdate(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ev, err := evaluationFor(e, app, cfg)
		if err != nil {
			return respondError(e, "settings", err)
		}

		var values url.Values
		if strings.HasPrefix(e.Request.Header.Get("Content-Type"), "application/json") {
			var p settingsPayload
			if err := json.NewDecoder(e.Request.Body).Decode(&p); err != nil {
				return respondError(e, "settings", &services.ValidationError{
					Errors: []services.FieldError{{Field: "(body)", Message: err.Error()}},
				})
			}
			values = p.values()
		} else {
			if err := e.Request.ParseForm(); err != nil {
				return ErrorToast(e, http.StatusBadRequest, "Invalid form data")
			}
			values = lastValues(e.Request.PostForm)
		}

		settings, err := settingsFromQuery(values, ev.Settings)
		if err != nil {
			if isHTMX(e) {
				return ErrorToast(e, http.StatusBadRequest, "Invalid normalization settings")
			}
			return respondError(e, "settings", err)
		}

		ev.Settings = settings
		if err := ev.save(app); err != nil {
			app.Logger().Error("settings: save failed", "id", ev.Record.Id, "error", err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to save settings")
		}
		app.Logger().Info("settings: updated",
			"id", ev.Record.Id,
			"algorithm", settings.Algorithm,
			"normalizeUnpriced", settings.NormalizeUnpriced,
			"normalizeArithmeticErrors", settings.NormalizeArithmeticErrors)

		TotalsChanged(e, ev.Record.Id)
		if isHTMX(e) {
			data, err := comparisonData(app, cfg, ev)
			if err != nil {
				return ErrorToast(e, statusFor(err), "Could not build the comparison")
			}
			SetToast(e, "success", "Settings saved")
			return templates.ComparisonContent(data).Render(e.Request.Context(), e.Response)
		}
		return e.JSON(http.StatusOK, settings)
	}
}
