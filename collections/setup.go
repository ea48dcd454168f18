package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"tendereval/services"
)

// jsonMaxSize bounds the BOQ and bid blobs of one evaluation round.
const jsonMaxSize = 5 << 20

var technicalStatuses = []string{services.StatusDraft, services.StatusInReview, services.StatusReviewComplete}

// Setup programmatically creates/ensures the tender collections exist:
// projects, packages, contractors, package_contractors, assets,
// commercial_evaluations and technical_evaluations.
func Setup(app *pocketbase.PocketBase) {
	projects := ensureCollection(app, "projects", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "client_name"})
		c.Fields.Add(&core.TextField{Name: "reference_number"})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Values:    []string{"active", "completed", "on_hold"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	packages := ensureCollection(app, "packages", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "project",
			Required:      true,
			CollectionId:  projects.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "reference_number"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	contractors := ensureCollection(app, "contractors", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "contact_name"})
		c.Fields.Add(&core.EmailField{Name: "email"})
		c.Fields.Add(&core.TextField{Name: "phone"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	})

	ensureCollection(app, "package_contractors", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "package",
			Required:      true,
			CollectionId:  packages.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.RelationField{
			Name:          "contractor",
			Required:      true,
			CollectionId:  contractors.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
	})

	assets := ensureCollection(app, "assets", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "package",
			Required:      true,
			CollectionId:  packages.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.NumberField{Name: "sort_order"})
	})

	ensureCollection(app, "commercial_evaluations", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "asset",
			Required:      true,
			CollectionId:  assets.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.NumberField{Name: "round_number", Required: true, OnlyInt: true})
		c.Fields.Add(&core.JSONField{Name: "boq_data", MaxSize: jsonMaxSize})
		c.Fields.Add(&core.JSONField{Name: "bids", MaxSize: jsonMaxSize})
		c.Fields.Add(&core.JSONField{Name: "settings"})
		c.Fields.Add(&core.JSONField{Name: "overrides"})
		c.Fields.Add(&core.JSONField{Name: "ptcs", MaxSize: jsonMaxSize})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	ensureCollection(app, "technical_evaluations", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "package",
			Required:      true,
			CollectionId:  packages.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.NumberField{Name: "round_number", Required: true, OnlyInt: true})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    technicalStatuses,
			MaxSelect: 1,
		})
		c.Fields.Add(&core.JSONField{Name: "scopes"})
		c.Fields.Add(&core.JSONField{Name: "scores"})
		c.Fields.Add(&core.JSONField{Name: "proposals_uploaded"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
