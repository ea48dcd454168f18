package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"tendereval/config"
	"tendereval/services"
	"tendereval/testhelpers"
)

func fptr(v float64) *float64 { return &v }

// fixtureBOQ has two divisions with two line items each.
func fixtureBOQ() services.BOQData {
	return services.BOQData{
		{ID: "div-1", Code: "01", Name: "Substructure", Sections: []services.BOQSection{
			{ID: "sec-1", Code: "01.01", Name: "Earthwork", Items: []services.BOQLineItem{
				{ID: "item-1", Code: "01.01.001", Description: "Excavation", Quantity: 100, Unit: "m3"},
				{ID: "item-2", Code: "01.01.002", Description: "Disposal", Quantity: 80, Unit: "m3"},
			}},
		}},
		{ID: "div-2", Code: "02", Name: "Foundations", Sections: []services.BOQSection{
			{ID: "sec-2", Code: "02.01", Name: "Concrete", Items: []services.BOQLineItem{
				{ID: "item-3", Code: "02.01.001", Description: "Blinding", Quantity: 20, Unit: "m3"},
				{ID: "item-4", Code: "02.01.002", Description: "Footings", Quantity: 40, Unit: "m3"},
			}},
		}},
	}
}

// evalFixture is one package with three contractors and a single
// commercial round. Default totals: alpha 4400, beta 5400, gamma 5600.
type evalFixture struct {
	app                *pocketbase.PocketBase
	cfg                *config.Config
	project, pkg       *core.Record
	asset, eval        *core.Record
	alpha, beta, gamma *core.Record
}

func newEvalFixture(t *testing.T) *evalFixture {
	t.Helper()
	app := testhelpers.NewTestApp(t)
	f := &evalFixture{app: app, cfg: config.DefaultConfig()}
	f.project = testhelpers.CreateTestProject(t, app, "Fixture Project")
	f.pkg = testhelpers.CreateTestPackage(t, app, f.project.Id, "Civil Works")
	f.alpha = testhelpers.CreateTestContractor(t, app, f.pkg.Id, "Alpha Builders")
	f.beta = testhelpers.CreateTestContractor(t, app, f.pkg.Id, "Beta Infra")
	f.gamma = testhelpers.CreateTestContractor(t, app, f.pkg.Id, "Gamma Constructions")
	f.asset = testhelpers.CreateTestAsset(t, app, f.pkg.Id, "Tower A")

	bids := []services.ContractorBid{
		{
			ContractorID:   f.alpha.Id,
			ContractorName: "Alpha Builders",
			Prices:         map[string]*float64{"item-1": fptr(1000), "item-2": fptr(400), "item-3": nil, "item-4": fptr(3000)},
			IncludedItems:  []string{"item-3"},
		},
		{
			ContractorID:     f.beta.Id,
			ContractorName:   "Beta Infra",
			Prices:           map[string]*float64{"item-1": fptr(1200), "item-2": nil, "item-3": fptr(500), "item-4": fptr(9000)},
			ArithmeticErrors: map[string]services.ArithmeticDiscrepancy{"item-4": {Submitted: 9000, Calculated: 3200}},
		},
		{
			ContractorID:   f.gamma.Id,
			ContractorName: "Gamma Constructions",
			Prices:         map[string]*float64{"item-1": fptr(900), "item-2": fptr(600), "item-3": fptr(700), "item-4": fptr(3400)},
		},
	}
	f.eval = testhelpers.CreateTestCommercialEvaluation(t, app, f.asset.Id, 1, fixtureBOQ(), bids)
	return f
}

// call runs handler against req with the {id} path value set to the
// fixture evaluation.
func (f *evalFixture) call(t *testing.T, handler func(*core.RequestEvent) error, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if req.PathValue("id") == "" {
		req.SetPathValue("id", f.eval.Id)
	}
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(f.app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func (f *evalFixture) reload(t *testing.T) *evaluation {
	t.Helper()
	ev, err := loadEvaluation(f.app, f.eval.Id, f.cfg.Settings())
	if err != nil {
		t.Fatalf("reload evaluation: %v", err)
	}
	return ev
}

func decodeJSON(t *testing.T, r io.Reader, dst any) {
	t.Helper()
	if err := json.NewDecoder(r).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func totalsByID(totals []services.ContractorTotal) map[string]float64 {
	out := make(map[string]float64, len(totals))
	for _, t := range totals {
		out[t.ContractorID] = t.TotalAmount
	}
	return out
}
