package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/pocketbase/pocketbase/tools/types"

	"tendereval/services"
)

func TestSettingsFromQuery(t *testing.T) {
	base := services.DefaultSettings()

	tests := []struct {
		name    string
		query   string
		want    services.NormalizationSettings
		wantErr bool
	}{
		{"empty keeps base", "", base, false},
		{"algorithm", "algorithm=lowest", services.NormalizationSettings{Algorithm: services.AlgorithmLowest, NormalizeUnpriced: true, NormalizeArithmeticErrors: true}, false},
		{"toggles", "normalizeUnpriced=false&normalizeArithmeticErrors=0", services.NormalizationSettings{Algorithm: services.AlgorithmMedian}, false},
		{"bad boolean", "normalizeUnpriced=maybe", base, true},
		{"unknown algorithm", "algorithm=mode", base, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got, err := settingsFromQuery(q, base)
			if tt.wantErr {
				var verr *services.ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLastValues(t *testing.T) {
	form := url.Values{"algorithm": {"median", "lowest"}, "normalizeUnpriced": {"true"}}
	got := lastValues(form)
	if got.Get("algorithm") != "lowest" || got.Get("normalizeUnpriced") != "true" {
		t.Errorf("got %v", got)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&services.ValidationError{Errors: []services.FieldError{{Field: "x", Message: "y"}}}, http.StatusBadRequest},
		{fmt.Errorf("create contractor: %w", &services.ValidationError{}), http.StatusBadRequest},
		{fmt.Errorf("evaluation abc: %w", errNotFound), http.StatusNotFound},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestLoadEvaluation(t *testing.T) {
	f := newEvalFixture(t)
	ev := f.reload(t)

	if len(ev.Bids) != 3 || len(ev.BOQ) != 2 {
		t.Fatalf("loaded %d bids over %d divisions", len(ev.Bids), len(ev.BOQ))
	}
	if ev.Settings != services.DefaultSettings() {
		t.Errorf("settings = %+v", ev.Settings)
	}
	c, ok := ev.contractor(f.beta.Id)
	if !ok || c.Name != "Beta Infra" {
		t.Errorf("contractor(beta) = %+v, %v", c, ok)
	}
	if _, ok := ev.contractor("nobody"); ok {
		t.Error("unknown contractor should not be found")
	}
}

func TestLoadEvaluation_Malformed(t *testing.T) {
	tests := []struct {
		field string
		value types.JSONRaw
	}{
		{"boq_data", types.JSONRaw(`[{"sections":[]}]`)},
		{"bids", types.JSONRaw(`[{"contractorId":"c1","prices":{"item-9":1}}]`)},
		{"settings", types.JSONRaw(`"median"`)},
		{"overrides", types.JSONRaw(`{"a":1}`)},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			f := newEvalFixture(t)
			f.eval.Set(tt.field, tt.value)
			if err := f.app.Save(f.eval); err != nil {
				t.Fatalf("save: %v", err)
			}

			_, err := loadEvaluation(f.app, f.eval.Id, f.cfg.Settings())
			var verr *services.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestLoadEvaluation_NotFound(t *testing.T) {
	f := newEvalFixture(t)
	for _, id := range []string{"", "missing"} {
		_, err := loadEvaluation(f.app, id, f.cfg.Settings())
		if !errors.Is(err, errNotFound) {
			t.Errorf("id %q: expected errNotFound, got %v", id, err)
		}
	}
}
