package collections

import (
	"bytes"
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/tools/types"

	"tendereval/services"
)

// MigrateDefaultNormalizationSettings backfills settings, overrides and
// ptcs on every commercial evaluation that is missing them. Safe to call
// on every startup.
func MigrateDefaultNormalizationSettings(app *pocketbase.PocketBase, defaults services.NormalizationSettings) error {
	evalsCol, err := app.FindCollectionByNameOrId("commercial_evaluations")
	if err != nil {
		return fmt.Errorf("migrate_settings: could not find commercial_evaluations collection: %w", err)
	}

	evals, err := app.FindAllRecords(evalsCol)
	if err != nil {
		return fmt.Errorf("migrate_settings: could not query commercial evaluations: %w", err)
	}

	for _, ev := range evals {
		changed := false
		if isBlankJSON(ev.Get("settings")) {
			ev.Set("settings", defaults)
			changed = true
		}
		if isBlankJSON(ev.Get("overrides")) {
			ev.Set("overrides", []services.OverrideEntry{})
			changed = true
		}
		if isBlankJSON(ev.Get("ptcs")) {
			ev.Set("ptcs", []services.ContractorPTCs{})
			changed = true
		}
		if !changed {
			continue
		}
		if err := app.Save(ev); err != nil {
			log.Printf("migrate_settings: failed to backfill evaluation %s: %v\n", ev.Id, err)
			continue
		}
	}

	return nil
}

func isBlankJSON(v any) bool {
	raw, ok := v.(types.JSONRaw)
	if !ok {
		return v == nil
	}
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}
