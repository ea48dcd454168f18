package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEvaluationMiddleware_StoresEvaluation(t *testing.T) {
	f := newEvalFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/api/evaluations/x/comparison", nil)
	req.SetPathValue("id", f.eval.Id)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(f.app, req, rec)

	if err := EvaluationMiddleware(f.app, f.cfg)(e); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}

	ev, ok := e.Request.Context().Value(EvaluationKey).(*evaluation)
	if !ok {
		t.Fatal("expected evaluation in request context")
	}
	if ev.Record.Id != f.eval.Id || len(ev.Bids) != 3 {
		t.Errorf("stored evaluation %s with %d bids", ev.Record.Id, len(ev.Bids))
	}

	got, err := evaluationFor(e, f.app, f.cfg)
	if err != nil || got != ev {
		t.Errorf("evaluationFor should return the stored evaluation, got %p (%v)", got, err)
	}
}

func TestEvaluationMiddleware_NotFound(t *testing.T) {
	f := newEvalFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/evaluations/missing/comparison", nil)
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()
	if err := EvaluationMiddleware(f.app, f.cfg)(newTestRequestEvent(f.app, req, rec)); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestEvaluationMiddleware_HTMXToast(t *testing.T) {
	f := newEvalFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/evaluations/missing/comparison", nil)
	req.SetPathValue("id", "missing")
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	if err := EvaluationMiddleware(f.app, f.cfg)(newTestRequestEvent(f.app, req, rec)); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if rec.Header().Get("HX-Reswap") != "none" {
		t.Error("expected HX-Reswap: none")
	}
}
