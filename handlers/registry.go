package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"tendereval/services"
)

func recordJSON(rec *core.Record, fields ...string) map[string]any {
	out := map[string]any{"id": rec.Id}
	for _, f := range fields {
		out[f] = rec.Get(f)
	}
	return out
}

func decodeBody(e *core.RequestEvent, dst any) error {
	if err := json.NewDecoder(e.Request.Body).Decode(dst); err != nil {
		return &services.ValidationError{Errors: []services.FieldError{{Field: "(body)", Message: err.Error()}}}
	}
	return nil
}

func requireName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &services.ValidationError{Errors: []services.FieldError{{Field: "name", Message: "is required"}}}
	}
	return nil
}

func listRecords(app *pocketbase.PocketBase, collection, filter, sort string, params map[string]any) ([]*core.Record, error) {
	col, err := app.FindCollectionByNameOrId(collection)
	if err != nil {
		return nil, fmt.Errorf("collection not found: %w", err)
	}
	return app.FindRecordsByFilter(col, filter, sort, 0, 0, params)
}

func createRecord(app core.App, collection string, fields map[string]any) (*core.Record, error) {
	col, err := app.FindCollectionByNameOrId(collection)
	if err != nil {
		return nil, fmt.Errorf("collection not found: %w", err)
	}
	rec := core.NewRecord(col)
	for k, v := range fields {
		rec.Set(k, v)
	}
	if err := app.Save(rec); err != nil {
		return nil, fmt.Errorf("save %s: %w", collection, err)
	}
	return rec, nil
}

var projectFields = []string{"name", "client_name", "reference_number", "status"}

// HandleProjectList returns all projects, newest first.
func HandleProjectList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		records, err := listRecords(app, "projects", "", "-created", nil)
		if err != nil {
			return respondError(e, "project_list", err)
		}
		out := make([]map[string]any, 0, len(records))
		for _, r := range records {
			out = append(out, recordJSON(r, projectFields...))
		}
		return e.JSON(http.StatusOK, out)
	}
}

type projectPayload struct {
	Name            string `json:"name"`
	ClientName      string `json:"client_name"`
	ReferenceNumber string `json:"reference_number"`
}

// HandleProjectCreate creates an active project.
func HandleProjectCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var p projectPayload
		if err := decodeBody(e, &p); err != nil {
			return respondError(e, "project_create", err)
		}
		if err := requireName(p.Name); err != nil {
			return respondError(e, "project_create", err)
		}

		rec, err := createRecord(app, "projects", map[string]any{
			"name":             strings.TrimSpace(p.Name),
			"client_name":      strings.TrimSpace(p.ClientName),
			"reference_number": strings.TrimSpace(p.ReferenceNumber),
			"status":           "active",
		})
		if err != nil {
			return respondError(e, "project_create", err)
		}
		app.Logger().Info("project_create: created", "id", rec.Id, "name", p.Name)
		return e.JSON(http.StatusCreated, recordJSON(rec, projectFields...))
	}
}

var packageFields = []string{"project", "name", "reference_number"}

// HandlePackageList returns the packages of a project.
func HandlePackageList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")
		if _, err := app.FindRecordById("projects", projectID); err != nil {
			return respondError(e, "package_list", fmt.Errorf("project %s: %w", projectID, errNotFound))
		}
		records, err := listRecords(app, "packages", "project = {:p}", "name", map[string]any{"p": projectID})
		if err != nil {
			return respondError(e, "package_list", err)
		}
		out := make([]map[string]any, 0, len(records))
		for _, r := range records {
			out = append(out, recordJSON(r, packageFields...))
		}
		return e.JSON(http.StatusOK, out)
	}
}

type packagePayload struct {
	Name            string `json:"name"`
	ReferenceNumber string `json:"reference_number"`
}

// HandlePackageCreate creates a package under a project along with its
// empty draft technical round. Both records are saved in one transaction.
func HandlePackageCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")
		if _, err := app.FindRecordById("projects", projectID); err != nil {
			return respondError(e, "package_create", fmt.Errorf("project %s: %w", projectID, errNotFound))
		}

		var p packagePayload
		if err := decodeBody(e, &p); err != nil {
			return respondError(e, "package_create", err)
		}
		if err := requireName(p.Name); err != nil {
			return respondError(e, "package_create", err)
		}

		var rec *core.Record
		err := app.RunInTransaction(func(txApp core.App) error {
			var err error
			rec, err = createRecord(txApp, "packages", map[string]any{
				"project":          projectID,
				"name":             strings.TrimSpace(p.Name),
				"reference_number": strings.TrimSpace(p.ReferenceNumber),
			})
			if err != nil {
				return err
			}
			_, err = createRecord(txApp, "technical_evaluations", map[string]any{
				"package":            rec.Id,
				"round_number":       1,
				"status":             services.StatusDraft,
				"scopes":             []services.Scope{},
				"scores":             map[string]map[string]float64{},
				"proposals_uploaded": []string{},
			})
			return err
		})
		if err != nil {
			return respondError(e, "package_create", err)
		}
		app.Logger().Info("package_create: created", "id", rec.Id, "project", projectID)
		return e.JSON(http.StatusCreated, recordJSON(rec, packageFields...))
	}
}

var contractorFields = []string{"name", "contact_name", "email", "phone"}

// HandleContractorList returns the contractors invited to a package.
func HandleContractorList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		packageID := e.Request.PathValue("packageId")
		if _, err := app.FindRecordById("packages", packageID); err != nil {
			return respondError(e, "contractor_list", fmt.Errorf("package %s: %w", packageID, errNotFound))
		}
		contractors, err := packageContractors(app, packageID)
		if err != nil {
			return respondError(e, "contractor_list", err)
		}
		out := make([]map[string]any, 0, len(contractors))
		for _, c := range contractors {
			rec, err := app.FindRecordById("contractors", c.ID)
			if err != nil {
				continue
			}
			out = append(out, recordJSON(rec, contractorFields...))
		}
		return e.JSON(http.StatusOK, out)
	}
}

type contractorPayload struct {
	Name        string `json:"name"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

// HandleContractorCreate creates a contractor and invites it to the package.
func HandleContractorCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		packageID := e.Request.PathValue("packageId")
		if _, err := app.FindRecordById("packages", packageID); err != nil {
			return respondError(e, "contractor_create", fmt.Errorf("package %s: %w", packageID, errNotFound))
		}

		var p contractorPayload
		if err := decodeBody(e, &p); err != nil {
			return respondError(e, "contractor_create", err)
		}
		if err := requireName(p.Name); err != nil {
			return respondError(e, "contractor_create", err)
		}

		var rec *core.Record
		err := app.RunInTransaction(func(txApp core.App) error {
			var err error
			rec, err = createRecord(txApp, "contractors", map[string]any{
				"name":         strings.TrimSpace(p.Name),
				"contact_name": strings.TrimSpace(p.ContactName),
				"email":        strings.TrimSpace(p.Email),
				"phone":        strings.TrimSpace(p.Phone),
			})
			if err != nil {
				return &services.ValidationError{
					Errors: []services.FieldError{{Field: "contractor", Message: err.Error()}},
				}
			}
			_, err = createRecord(txApp, "package_contractors", map[string]any{
				"package":    packageID,
				"contractor": rec.Id,
			})
			return err
		})
		if err != nil {
			return respondError(e, "contractor_create", err)
		}
		return e.JSON(http.StatusCreated, recordJSON(rec, contractorFields...))
	}
}
