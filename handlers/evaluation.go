package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"

	"tendereval/services"
)

var errNotFound = errors.New("not found")

// evaluation is a commercial_evaluations record with its JSON fields
// decoded and validated.
type evaluation struct {
	Record     *core.Record
	BOQ        services.BOQData
	Raws       []services.ContractorBid
	Bids       []services.Bid
	Normalizer *services.Normalizer
	Settings   services.NormalizationSettings
	Overrides  services.Overrides
	PTCs       []services.ContractorPTCs
}

func jsonField(rec *core.Record, name string) []byte {
	raw, _ := rec.Get(name).(types.JSONRaw)
	return raw
}

func blankJSON(raw []byte) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// loadEvaluation reads and decodes one commercial evaluation. A round with
// no BOQ yet loads fine and has no bids; anything malformed is a
// *services.ValidationError.
func loadEvaluation(app *pocketbase.PocketBase, id string, defaults services.NormalizationSettings) (*evaluation, error) {
	if id == "" {
		return nil, fmt.Errorf("evaluation: %w", errNotFound)
	}
	rec, err := app.FindRecordById("commercial_evaluations", id)
	if err != nil {
		return nil, fmt.Errorf("evaluation %s: %w", id, errNotFound)
	}

	ev := &evaluation{
		Record:    rec,
		Settings:  defaults,
		Overrides: services.Overrides{},
		PTCs:      []services.ContractorPTCs{},
	}

	boq, err := services.DecodeBOQ(jsonField(rec, "boq_data"))
	if err != nil && !errors.Is(err, services.ErrNoData) {
		return nil, err
	}
	ev.BOQ = boq
	ev.Normalizer = services.NewNormalizer(boq)

	if len(boq) > 0 {
		raws, bids, err := services.DecodeBids(jsonField(rec, "bids"), ev.Normalizer.ItemIDs())
		if err != nil && !errors.Is(err, services.ErrNoData) {
			return nil, err
		}
		ev.Raws, ev.Bids = raws, bids
	}

	if raw := jsonField(rec, "settings"); !blankJSON(raw) {
		if err := json.Unmarshal(raw, &ev.Settings); err != nil {
			return nil, &services.ValidationError{Errors: []services.FieldError{{Field: "settings", Message: err.Error()}}}
		}
	}
	if raw := jsonField(rec, "overrides"); !blankJSON(raw) {
		var entries []services.OverrideEntry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, &services.ValidationError{Errors: []services.FieldError{{Field: "overrides", Message: err.Error()}}}
		}
		ev.Overrides = services.OverridesFromEntries(entries)
	}
	if raw := jsonField(rec, "ptcs"); !blankJSON(raw) {
		if err := json.Unmarshal(raw, &ev.PTCs); err != nil {
			return nil, &services.ValidationError{Errors: []services.FieldError{{Field: "ptcs", Message: err.Error()}}}
		}
	}

	return ev, nil
}

// compare normalizes the evaluation's bids. An evaluation without a BOQ
// returns services.ErrNoData.
func (ev *evaluation) compare(settings services.NormalizationSettings) (*services.Comparison, error) {
	if len(ev.BOQ) == 0 {
		return nil, services.ErrNoData
	}
	if err := services.ValidateSettings(settings); err != nil {
		return nil, err
	}
	return ev.Normalizer.Compare(ev.Bids, settings, ev.Overrides), nil
}

func (ev *evaluation) contractor(id string) (services.Contractor, bool) {
	for _, b := range ev.Bids {
		if b.ContractorID == id {
			return services.Contractor{ID: b.ContractorID, Name: b.ContractorName}, true
		}
	}
	return services.Contractor{}, false
}

// save writes the mutable JSON fields back to the record.
func (ev *evaluation) save(app *pocketbase.PocketBase) error {
	ev.Record.Set("bids", ev.Raws)
	ev.Record.Set("settings", ev.Settings)
	ev.Record.Set("overrides", ev.Overrides.Entries())
	ev.Record.Set("ptcs", ev.PTCs)
	if err := app.Save(ev.Record); err != nil {
		return fmt.Errorf("save evaluation %s: %w", ev.Record.Id, err)
	}
	return nil
}

// exportHeader returns the title and reference number used by the
// comparison page and exports.
func exportHeader(app *pocketbase.PocketBase, rec *core.Record) (title, ref string) {
	title = fmt.Sprintf("Round %d Comparison", rec.GetInt("round_number"))
	asset, err := app.FindRecordById("assets", rec.GetString("asset"))
	if err != nil {
		return title, ""
	}
	title = fmt.Sprintf("%s - %s", asset.GetString("name"), title)
	if pkg, err := app.FindRecordById("packages", asset.GetString("package")); err == nil {
		ref = pkg.GetString("reference_number")
	}
	return title, ref
}

func createdDate(rec *core.Record) string {
	if dt := rec.GetDateTime("created"); !dt.IsZero() {
		return dt.Time().Format("02 Jan 2006")
	}
	return "-"
}

// settingsFromQuery lays query-string toggles over base.
func settingsFromQuery(q url.Values, base services.NormalizationSettings) (services.NormalizationSettings, error) {
	s := base
	verr := &services.ValidationError{}
	if v := q.Get("algorithm"); v != "" {
		s.Algorithm = services.Algorithm(v)
	}
	for name, dst := range map[string]*bool{
		"normalizeUnpriced":         &s.NormalizeUnpriced,
		"normalizeArithmeticErrors": &s.NormalizeArithmeticErrors,
	} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			verr.Errors = append(verr.Errors, services.FieldError{Field: name, Message: fmt.Sprintf("%q is not a boolean", v)})
			continue
		}
		*dst = b
	}
	if len(verr.Errors) > 0 {
		return s, verr
	}
	if err := services.ValidateSettings(s); err != nil {
		return s, err
	}
	return s, nil
}

func isHTMX(e *core.RequestEvent) bool {
	return e.Request.Header.Get("HX-Request") == "true"
}

func statusFor(err error) int {
	switch {
	case services.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, errNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// respondError maps service errors onto JSON responses: validation
// failures are 400, missing records 404, everything else 500.
func respondError(e *core.RequestEvent, op string, err error) error {
	var verr *services.ValidationError
	switch status := statusFor(err); status {
	case http.StatusBadRequest:
		errors.As(err, &verr)
		return e.JSON(status, map[string]any{
			"message": "validation failed",
			"errors":  verr.Errors,
		})
	case http.StatusNotFound:
		return e.JSON(status, map[string]any{"message": err.Error()})
	}
	e.App.Logger().Error(op+" failed", "error", err)
	return e.JSON(http.StatusInternalServerError, map[string]any{"message": "Something went wrong. Please try again."})
}
