package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"tendereval/services"
)

// EnsureTechnicalRounds finds every package without a technical evaluation
// and creates an empty draft round 1 for it. Safe to call on every
// startup -- returns early if nothing to migrate.
func EnsureTechnicalRounds(app *pocketbase.PocketBase) error {
	packagesCol, err := app.FindCollectionByNameOrId("packages")
	if err != nil {
		return fmt.Errorf("migrate: could not find packages collection: %w", err)
	}

	techCol, err := app.FindCollectionByNameOrId("technical_evaluations")
	if err != nil {
		return fmt.Errorf("migrate: could not find technical_evaluations collection: %w", err)
	}

	packages, err := app.FindAllRecords(packagesCol)
	if err != nil {
		return fmt.Errorf("migrate: could not query packages: %w", err)
	}

	var missing []*core.Record
	for _, pkg := range packages {
		existing, _ := app.FindRecordsByFilter(
			techCol,
			"package = {:packageId}",
			"", 1, 0,
			map[string]any{"packageId": pkg.Id},
		)
		if len(existing) == 0 {
			missing = append(missing, pkg)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	log.Printf("migrate: found %d package(s) without a technical round -- creating drafts...\n", len(missing))

	for _, pkg := range missing {
		record := core.NewRecord(techCol)
		record.Set("package", pkg.Id)
		record.Set("round_number", 1)
		record.Set("status", services.StatusDraft)
		record.Set("scopes", []services.Scope{})
		record.Set("scores", map[string]map[string]float64{})
		record.Set("proposals_uploaded", []string{})

		if err := app.Save(record); err != nil {
			log.Printf("migrate: failed to create technical round for package %q (%s): %v\n",
				pkg.GetString("name"), pkg.Id, err)
			continue
		}
	}

	return nil
}
