package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"tendereval/services"
)

// ── Definition structs ───────────────────────────────────────────────────

type contractorDef struct {
	name        string
	contactName string
	email       string
	phone       string
}

type itemDef struct {
	code        string
	description string
	qty         float64
	unit        string
	rate        float64 // reference rate; contractor prices are rate × qty × factor
}

type sectionDef struct {
	code  string
	name  string
	items []itemDef
}

type divisionDef struct {
	code     string
	name     string
	sections []sectionDef
}

// bidDef describes how one contractor priced the demo BOQ. factor scales
// the reference rate; the maps mark the irregular cells by item code.
type bidDef struct {
	factor     float64
	unpriced   []string
	included   []string
	arithmetic map[string]float64 // code -> submitted amount
}

var seedContractors = []contractorDef{
	{"Apex Civil Contractors", "R. Menon", "tenders@apexcivil.example", "9820011122"},
	{"Brightline Infra Pvt Ltd", "S. Kulkarni", "bids@brightline.example", "9820033344"},
	{"Coastal Builders & Engineers", "A. D'Souza", "estimating@coastal.example", "9820055566"},
}

var seedDivisions = []divisionDef{
	{"01", "Substructure", []sectionDef{
		{"01.01", "Excavation & Earthwork", []itemDef{
			{"01.01.001", "Excavation in ordinary soil up to 1.5 m depth", 850, "m3", 320},
			{"01.01.002", "Disposal of surplus excavated material within 5 km lead", 600, "m3", 180},
			{"01.01.003", "Anti-termite treatment to foundation trenches", 1200, "m2", 45},
		}},
		{"01.02", "Foundations", []itemDef{
			{"01.02.001", "PCC 1:4:8 blinding below footings", 95, "m3", 5600},
			{"01.02.002", "RCC M30 in isolated footings", 410, "m3", 8900},
			{"01.02.003", "TMT Fe500D reinforcement", 52, "MT", 72000},
		}},
	}},
	{"02", "Superstructure", []sectionDef{
		{"02.01", "Frame", []itemDef{
			{"02.01.001", "RCC M35 in columns and shear walls", 620, "m3", 9600},
			{"02.01.002", "RCC M30 in beams and slabs", 1480, "m3", 9100},
			{"02.01.003", "Formwork to soffits of slabs", 9800, "m2", 640},
		}},
		{"02.02", "Masonry", []itemDef{
			{"02.02.001", "200 mm AAC block masonry in CM 1:6", 5200, "m2", 1150},
			{"02.02.002", "100 mm AAC block partitions", 2100, "m2", 780},
		}},
	}},
	{"03", "Finishes", []sectionDef{
		{"03.01", "Plaster & Paint", []itemDef{
			{"03.01.001", "Internal gypsum plaster 12 mm", 18500, "m2", 210},
			{"03.01.002", "External sand-faced plaster 20 mm", 7400, "m2", 390},
			{"03.01.003", "Acrylic emulsion paint, two coats", 18500, "m2", 95},
		}},
	}},
}

// Round 1 and round 2 bids for Tower A; Podium has a single round.
var seedBidRounds = map[string][][]bidDef{
	"Tower A": {
		{
			{factor: 1.00, arithmetic: map[string]float64{"02.01.002": 14200000}},
			{factor: 0.94, unpriced: []string{"01.01.003", "03.01.003"}},
			{factor: 1.08, included: []string{"01.01.002"}},
		},
		{
			{factor: 0.97},
			{factor: 0.95, unpriced: []string{"03.01.003"}},
			{factor: 1.02, included: []string{"01.01.002"}},
		},
	},
	"Podium": {
		{
			{factor: 1.03},
			{factor: 0.99, included: []string{"01.01.003"}},
			{factor: 0.96, unpriced: []string{"02.02.002"}, arithmetic: map[string]float64{"01.02.003": 3100000}},
		},
	},
}

var seedAssets = []string{"Tower A", "Podium"}

// Seed populates all collections with a deterministic demo tender: one
// project, one package, two assets with bid rounds and a review-complete
// technical round. It is safe to call on every startup because it
// returns early if any project records already exist.
func Seed(app *pocketbase.PocketBase) error {
	// ── idempotency: skip if projects already exist ──────────────────
	projectsCol, err := app.FindCollectionByNameOrId("projects")
	if err != nil {
		return fmt.Errorf("seed: could not find projects collection: %w", err)
	}
	existing, err := app.FindAllRecords(projectsCol)
	if err != nil {
		return fmt.Errorf("seed: could not query projects: %w", err)
	}
	if len(existing) > 0 {
		return nil // already seeded
	}

	log.Println("seed: projects collection is empty – inserting seed data …")

	project := core.NewRecord(projectsCol)
	project.Set("name", "Riverside Residences")
	project.Set("client_name", "Riverside Developers LLP")
	project.Set("reference_number", "RR-2025-001")
	project.Set("status", "active")
	if err := app.Save(project); err != nil {
		return fmt.Errorf("seed: save project: %w", err)
	}

	pkg, err := saveRecord(app, "packages", map[string]any{
		"project":          project.Id,
		"name":             "Civil & Structural Works",
		"reference_number": "RR-PKG-CS-01",
	})
	if err != nil {
		return err
	}

	var contractors []services.Contractor
	for _, d := range seedContractors {
		rec, err := saveRecord(app, "contractors", map[string]any{
			"name":         d.name,
			"contact_name": d.contactName,
			"email":        d.email,
			"phone":        d.phone,
		})
		if err != nil {
			return err
		}
		if _, err := saveRecord(app, "package_contractors", map[string]any{
			"package":    pkg.Id,
			"contractor": rec.Id,
		}); err != nil {
			return err
		}
		contractors = append(contractors, services.Contractor{ID: rec.Id, Name: d.name})
	}

	boq, codes := seedBOQ()
	for i, name := range seedAssets {
		asset, err := saveRecord(app, "assets", map[string]any{
			"package":    pkg.Id,
			"name":       name,
			"sort_order": i + 1,
		})
		if err != nil {
			return err
		}
		for round, defs := range seedBidRounds[name] {
			bids := make([]services.ContractorBid, 0, len(defs))
			for ci, def := range defs {
				bids = append(bids, seedBid(contractors[ci], def, codes))
			}
			if _, err := saveRecord(app, "commercial_evaluations", map[string]any{
				"asset":        asset.Id,
				"round_number": round + 1,
				"boq_data":     boq,
				"bids":         bids,
				"settings":     services.DefaultSettings(),
				"overrides":    []services.OverrideEntry{},
				"ptcs":         []services.ContractorPTCs{},
			}); err != nil {
				return err
			}
		}
	}

	tech := seedTechnical(contractors)
	if _, err := saveRecord(app, "technical_evaluations", map[string]any{
		"package":            pkg.Id,
		"round_number":       tech.RoundNumber,
		"status":             tech.Status,
		"scopes":             tech.Scopes,
		"scores":             tech.Scores,
		"proposals_uploaded": tech.ProposalsUploaded,
	}); err != nil {
		return err
	}

	log.Printf("seed: created project %q with %d contractors and %d assets\n",
		project.GetString("name"), len(contractors), len(seedAssets))
	return nil
}

func saveRecord(app *pocketbase.PocketBase, collection string, fields map[string]any) (*core.Record, error) {
	col, err := app.FindCollectionByNameOrId(collection)
	if err != nil {
		return nil, fmt.Errorf("seed: could not find %s collection: %w", collection, err)
	}
	rec := core.NewRecord(col)
	for k, v := range fields {
		rec.Set(k, v)
	}
	if err := app.Save(rec); err != nil {
		return nil, fmt.Errorf("seed: save %s: %w", collection, err)
	}
	return rec, nil
}

// seedBOQ builds the demo BOQ and returns it with a code -> item lookup.
func seedBOQ() (services.BOQData, map[string]itemDef) {
	codes := make(map[string]itemDef)
	var boq services.BOQData
	for _, d := range seedDivisions {
		div := services.BOQDivision{ID: "div-" + d.code, Code: d.code, Name: d.name}
		for _, s := range d.sections {
			sec := services.BOQSection{ID: "sec-" + s.code, Code: s.code, Name: s.name}
			for _, it := range s.items {
				codes[it.code] = it
				sec.Items = append(sec.Items, services.BOQLineItem{
					ID:          "item-" + it.code,
					Code:        it.code,
					Description: it.description,
					Quantity:    it.qty,
					Unit:        it.unit,
				})
			}
			div.Sections = append(div.Sections, sec)
		}
		boq = append(boq, div)
	}
	return boq, codes
}

func seedBid(c services.Contractor, def bidDef, codes map[string]itemDef) services.ContractorBid {
	skip := make(map[string]bool)
	cells := make(map[string]services.Cell, len(codes))
	for _, code := range def.unpriced {
		cells["item-"+code] = services.Unpriced()
		skip[code] = true
	}
	for _, code := range def.included {
		cells["item-"+code] = services.Included()
		skip[code] = true
	}
	for code, it := range codes {
		if skip[code] {
			continue
		}
		amount := services.RoundCents(it.qty * it.rate * def.factor)
		if submitted, ok := def.arithmetic[code]; ok {
			cells["item-"+code] = services.ArithmeticError(submitted, submitted, amount)
			continue
		}
		cells["item-"+code] = services.Priced(amount)
	}

	ids := make([]string, 0, len(codes))
	for _, d := range seedDivisions {
		for _, s := range d.sections {
			for _, it := range s.items {
				ids = append(ids, "item-"+it.code)
			}
		}
	}
	return services.NewBid(c.ID, c.Name, cells).Raw(ids)
}

func seedTechnical(contractors []services.Contractor) services.TechnicalEvaluation {
	scopes := []services.Scope{
		{ID: "scope-approach", Name: "Technical Approach", Breakdowns: []services.Breakdown{
			{ID: "bd-methodology", Name: "Construction methodology", Weight: 25},
			{ID: "bd-programme", Name: "Programme & sequencing", Weight: 15},
			{ID: "bd-hse", Name: "Health, safety & environment", Weight: 15},
		}},
		{ID: "scope-capability", Name: "Capability", Breakdowns: []services.Breakdown{
			{ID: "bd-experience", Name: "Similar project experience", Weight: 30},
			{ID: "bd-team", Name: "Key personnel", Weight: 15},
		}},
	}
	raw := []map[string]float64{
		{"bd-methodology": 85, "bd-programme": 78, "bd-hse": 90, "bd-experience": 88, "bd-team": 80},
		{"bd-methodology": 72, "bd-programme": 80, "bd-hse": 75, "bd-experience": 70, "bd-team": 65},
		{"bd-methodology": 90, "bd-programme": 85, "bd-hse": 88, "bd-experience": 92, "bd-team": 86},
	}
	te := services.TechnicalEvaluation{
		RoundNumber: 1,
		Status:      services.StatusReviewComplete,
		Scopes:      scopes,
		Scores:      make(map[string]map[string]float64, len(contractors)),
	}
	for i, c := range contractors {
		te.Scores[c.ID] = raw[i%len(raw)]
		te.ProposalsUploaded = append(te.ProposalsUploaded, c.ID)
	}
	return te
}
