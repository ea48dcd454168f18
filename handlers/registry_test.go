package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"tendereval/testhelpers"
)

func callRegistry(t *testing.T, app *pocketbase.PocketBase, handler func(*core.RequestEvent) error, method, body string, pathValues map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/api", strings.NewReader(body))
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func TestHandleProjectCreateAndList(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	rec := callRegistry(t, app, HandleProjectCreate(app), http.MethodPost,
		`{"name":"  Harbour View ","client_name":"Port Trust","reference_number":"HV-01"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created map[string]any
	decodeJSON(t, rec.Body, &created)
	if created["name"] != "Harbour View" || created["status"] != "active" {
		t.Errorf("created = %v", created)
	}

	rec = callRegistry(t, app, HandleProjectList(app), http.MethodGet, "", nil)
	var list []map[string]any
	decodeJSON(t, rec.Body, &list)
	if len(list) != 1 || list[0]["id"] != created["id"] {
		t.Errorf("list = %v", list)
	}
}

func TestHandleProjectCreate_RequiresName(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	for _, body := range []string{`{"name":"   "}`, `not json`} {
		rec := callRegistry(t, app, HandleProjectCreate(app), http.MethodPost, body, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestHandlePackageCreate_CreatesTechnicalRound(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	project := testhelpers.CreateTestProject(t, app, "Harbour View")

	rec := callRegistry(t, app, HandlePackageCreate(app), http.MethodPost,
		`{"name":"MEP Works","reference_number":"PKG-MEP"}`, map[string]string{"projectId": project.Id})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var pkg map[string]any
	decodeJSON(t, rec.Body, &pkg)

	rounds, err := app.FindRecordsByFilter("technical_evaluations", "package = {:p}", "", 0, 0,
		map[string]any{"p": pkg["id"]})
	if err != nil || len(rounds) != 1 {
		t.Fatalf("expected one technical round, got %d (%v)", len(rounds), err)
	}
	if rounds[0].GetString("status") != "draft" || rounds[0].GetInt("round_number") != 1 {
		t.Errorf("technical round = %s/%d", rounds[0].GetString("status"), rounds[0].GetInt("round_number"))
	}

	rec = callRegistry(t, app, HandlePackageList(app), http.MethodGet, "", map[string]string{"projectId": project.Id})
	var list []map[string]any
	decodeJSON(t, rec.Body, &list)
	if len(list) != 1 || list[0]["reference_number"] != "PKG-MEP" {
		t.Errorf("list = %v", list)
	}
}

func failOnCreate(app *pocketbase.PocketBase, collection string) {
	app.OnRecordCreate(collection).BindFunc(func(e *core.RecordEvent) error {
		return errors.New("save rejected")
	})
}

func countRecords(t *testing.T, app *pocketbase.PocketBase, collection, name string) int {
	t.Helper()
	records, err := app.FindRecordsByFilter(collection, "name = {:n}", "", 0, 0, dbx.Params{"n": name})
	if err != nil {
		t.Fatalf("find %s: %v", collection, err)
	}
	return len(records)
}

func TestHandlePackageCreate_RollsBackWhenRoundFails(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	project := testhelpers.CreateTestProject(t, app, "Harbour View")
	failOnCreate(app, "technical_evaluations")

	rec := callRegistry(t, app, HandlePackageCreate(app), http.MethodPost,
		`{"name":"Facade Works"}`, map[string]string{"projectId": project.Id})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
	if n := countRecords(t, app, "packages", "Facade Works"); n != 0 {
		t.Errorf("expected no package to be saved, found %d", n)
	}
}

func TestHandleContractorCreate_RollsBackWhenLinkFails(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	project := testhelpers.CreateTestProject(t, app, "Harbour View")
	pkg := testhelpers.CreateTestPackage(t, app, project.Id, "MEP Works")
	failOnCreate(app, "package_contractors")

	rec := callRegistry(t, app, HandleContractorCreate(app), http.MethodPost,
		`{"name":"Orphan Electricals"}`, map[string]string{"packageId": pkg.Id})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
	if n := countRecords(t, app, "contractors", "Orphan Electricals"); n != 0 {
		t.Errorf("expected no contractor to be saved, found %d", n)
	}
}

func TestHandleContractorCreateAndList(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	project := testhelpers.CreateTestProject(t, app, "Harbour View")
	pkg := testhelpers.CreateTestPackage(t, app, project.Id, "MEP Works")
	testhelpers.CreateTestContractor(t, app, "", "Not Invited Ltd")

	rec := callRegistry(t, app, HandleContractorCreate(app), http.MethodPost,
		`{"name":"Delta Electricals","email":"bids@delta.example"}`, map[string]string{"packageId": pkg.Id})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = callRegistry(t, app, HandleContractorList(app), http.MethodGet, "", map[string]string{"packageId": pkg.Id})
	var list []map[string]any
	decodeJSON(t, rec.Body, &list)
	if len(list) != 1 || list[0]["name"] != "Delta Electricals" {
		t.Errorf("list = %v, want only the invited contractor", list)
	}
}

func TestRegistry_UnknownParent(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	tests := []struct {
		name    string
		handler func(*core.RequestEvent) error
		method  string
		path    map[string]string
	}{
		{"package list", HandlePackageList(app), http.MethodGet, map[string]string{"projectId": "missing"}},
		{"package create", HandlePackageCreate(app), http.MethodPost, map[string]string{"projectId": "missing"}},
		{"contractor list", HandleContractorList(app), http.MethodGet, map[string]string{"packageId": "missing"}},
		{"contractor create", HandleContractorCreate(app), http.MethodPost, map[string]string{"packageId": "missing"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := callRegistry(t, app, tt.handler, tt.method, `{"name":"x"}`, tt.path)
			if rec.Code != http.StatusNotFound {
				t.Errorf("expected 404, got %d", rec.Code)
			}
		})
	}
}
