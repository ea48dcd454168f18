// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"tendereval/collections"
	"tendereval/services"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

func saveTestRecord(t *testing.T, app *pocketbase.PocketBase, collection string, fields map[string]any) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId(collection)
	if err != nil {
		t.Fatalf("failed to find %s collection: %v", collection, err)
	}

	record := core.NewRecord(col)
	for k, v := range fields {
		record.Set(k, v)
	}
	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test %s record: %v", collection, err)
	}
	return record
}

// CreateTestProject creates a project record with the given name and returns it.
func CreateTestProject(t *testing.T, app *pocketbase.PocketBase, name string) *core.Record {
	t.Helper()
	return saveTestRecord(t, app, "projects", map[string]any{
		"name":   name,
		"status": "active",
	})
}

// CreateTestPackage creates a package record linked to a project.
func CreateTestPackage(t *testing.T, app *pocketbase.PocketBase, projectID, name string) *core.Record {
	t.Helper()
	return saveTestRecord(t, app, "packages", map[string]any{
		"project":          projectID,
		"name":             name,
		"reference_number": "PKG-001",
	})
}

// CreateTestContractor creates a contractor and, when packageID is not
// empty, links it to that package.
func CreateTestContractor(t *testing.T, app *pocketbase.PocketBase, packageID, name string) *core.Record {
	t.Helper()
	record := saveTestRecord(t, app, "contractors", map[string]any{
		"name":         name,
		"contact_name": "Test Contact",
		"phone":        "9876543210",
	})
	if packageID != "" {
		saveTestRecord(t, app, "package_contractors", map[string]any{
			"package":    packageID,
			"contractor": record.Id,
		})
	}
	return record
}

// CreateTestAsset creates an asset record linked to a package.
func CreateTestAsset(t *testing.T, app *pocketbase.PocketBase, packageID, name string) *core.Record {
	t.Helper()
	return saveTestRecord(t, app, "assets", map[string]any{
		"package":    packageID,
		"name":       name,
		"sort_order": 1,
	})
}

// CreateTestCommercialEvaluation creates a commercial round for an asset
// with default normalization settings.
func CreateTestCommercialEvaluation(t *testing.T, app *pocketbase.PocketBase, assetID string, round int, boq services.BOQData, bids []services.ContractorBid) *core.Record {
	t.Helper()
	return saveTestRecord(t, app, "commercial_evaluations", map[string]any{
		"asset":        assetID,
		"round_number": round,
		"boq_data":     boq,
		"bids":         bids,
		"settings":     services.DefaultSettings(),
		"overrides":    []services.OverrideEntry{},
		"ptcs":         []services.ContractorPTCs{},
	})
}

// CreateTestTechnicalEvaluation creates a technical round for a package.
func CreateTestTechnicalEvaluation(t *testing.T, app *pocketbase.PocketBase, packageID string, te services.TechnicalEvaluation) *core.Record {
	t.Helper()
	if te.RoundNumber == 0 {
		te.RoundNumber = 1
	}
	if te.Status == "" {
		te.Status = services.StatusDraft
	}
	return saveTestRecord(t, app, "technical_evaluations", map[string]any{
		"package":            packageID,
		"round_number":       te.RoundNumber,
		"status":             te.Status,
		"scopes":             te.Scopes,
		"scores":             te.Scores,
		"proposals_uploaded": te.ProposalsUploaded,
	})
}

// AssertHTMLContains checks that body contains all specified fragments.
func AssertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected HTML to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

// AssertHXRedirect checks that the response has an HX-Redirect header with the expected URL.
func AssertHXRedirect(t *testing.T, headerVal, expectedURL string) {
	t.Helper()

	if headerVal != expectedURL {
		t.Errorf("expected HX-Redirect %q, got %q", expectedURL, headerVal)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
