package collections_test

import (
	"testing"

	"github.com/pocketbase/pocketbase/tools/types"

	"tendereval/collections"
	"tendereval/services"
	"tendereval/testhelpers"
)

func TestSeed_CreatesData(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	want := map[string]int{
		"projects":               1,
		"packages":               1,
		"contractors":            3,
		"package_contractors":    3,
		"assets":                 2,
		"commercial_evaluations": 3,
		"technical_evaluations":  1,
	}
	for name, n := range want {
		col, err := app.FindCollectionByNameOrId(name)
		if err != nil {
			t.Fatalf("collection %q: %v", name, err)
		}
		records, err := app.FindAllRecords(col)
		if err != nil {
			t.Fatalf("query %s error: %v", name, err)
		}
		if len(records) != n {
			t.Errorf("%s: expected %d records, got %d", name, n, len(records))
		}
	}

	projectsCol, _ := app.FindCollectionByNameOrId("projects")
	projects, _ := app.FindAllRecords(projectsCol)
	if projects[0].GetString("name") != "Riverside Residences" {
		t.Errorf("project name = %q, want %q", projects[0].GetString("name"), "Riverside Residences")
	}
}

func TestSeed_Idempotent(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("first Seed() error: %v", err)
	}
	if err := collections.Seed(app); err != nil {
		t.Fatalf("second Seed() error: %v", err)
	}

	evalsCol, _ := app.FindCollectionByNameOrId("commercial_evaluations")
	evals, _ := app.FindAllRecords(evalsCol)
	if len(evals) != 3 {
		t.Errorf("expected 3 commercial evaluations after idempotent seed, got %d", len(evals))
	}
}

func TestSeed_SkipsWhenDataExists(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestProject(t, app, "Existing Project")

	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	packagesCol, _ := app.FindCollectionByNameOrId("packages")
	packages, _ := app.FindAllRecords(packagesCol)
	if len(packages) != 0 {
		t.Errorf("expected no packages when projects already exist, got %d", len(packages))
	}
}

func TestSeed_CommercialRoundsAreValid(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	evalsCol, _ := app.FindCollectionByNameOrId("commercial_evaluations")
	evals, _ := app.FindAllRecords(evalsCol)
	for _, ev := range evals {
		boqRaw, _ := ev.Get("boq_data").(types.JSONRaw)
		boq, err := services.DecodeBOQ(boqRaw)
		if err != nil {
			t.Fatalf("evaluation %s: DecodeBOQ error: %v", ev.Id, err)
		}
		if boq.ItemCount() != 14 {
			t.Errorf("evaluation %s: expected 14 line items, got %d", ev.Id, boq.ItemCount())
		}

		bidsRaw, _ := ev.Get("bids").(types.JSONRaw)
		raws, _, err := services.DecodeBids(bidsRaw, services.FlattenItemIDs(boq))
		if err != nil {
			t.Fatalf("evaluation %s: DecodeBids error: %v", ev.Id, err)
		}
		if len(raws) != 3 {
			t.Errorf("evaluation %s: expected 3 bids, got %d", ev.Id, len(raws))
		}

		cmp, err := services.BuildComparison(boq, raws, services.DefaultSettings(), services.Overrides{})
		if err != nil {
			t.Fatalf("evaluation %s: BuildComparison error: %v", ev.Id, err)
		}
		for i := 1; i < len(cmp.Bids); i++ {
			if cmp.Bids[i-1].TotalAmount > cmp.Bids[i].TotalAmount {
				t.Errorf("evaluation %s: bids not sorted by total", ev.Id)
			}
		}
	}
}

func TestSeed_TechnicalWeightsSumTo100(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	techCol, _ := app.FindCollectionByNameOrId("technical_evaluations")
	records, _ := app.FindAllRecords(techCol)
	if len(records) != 1 {
		t.Fatalf("expected 1 technical evaluation, got %d", len(records))
	}
	if got := records[0].GetString("status"); got != services.StatusReviewComplete {
		t.Errorf("status = %q, want %q", got, services.StatusReviewComplete)
	}

	var scopes []services.Scope
	if err := records[0].UnmarshalJSONField("scopes", &scopes); err != nil {
		t.Fatalf("unmarshal scopes: %v", err)
	}
	var sum float64
	for _, w := range services.WeightTotals(scopes) {
		sum += w
	}
	if sum != 100 {
		t.Errorf("weights sum to %v, want 100", sum)
	}
}
