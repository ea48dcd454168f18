package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"tendereval/config"
	"tendereval/services"
)

type rankingsResponse struct {
	PackageID      string                     `json:"packageId"`
	TechnicalRound int                        `json:"technicalRound"`
	ReviewComplete bool                       `json:"reviewComplete"`
	Technical      []services.TechnicalRank   `json:"technical"`
	Commercial     []services.CommercialRank  `json:"commercial"`
	Eligible       []services.CommercialRank  `json:"eligible"`
	Assets         []services.AssetCommercial `json:"assets"`
	WeightTotals   map[string]float64         `json:"weightTotals"`
}

// packageContractors lists the contractors linked to a package.
func packageContractors(app *pocketbase.PocketBase, packageID string) ([]services.Contractor, error) {
	linksCol, err := app.FindCollectionByNameOrId("package_contractors")
	if err != nil {
		return nil, fmt.Errorf("collection not found: %w", err)
	}
	links, err := app.FindRecordsByFilter(linksCol, "package = {:p}", "", 0, 0, map[string]any{"p": packageID})
	if err != nil {
		return nil, fmt.Errorf("query package contractors: %w", err)
	}

	out := make([]services.Contractor, 0, len(links))
	for _, l := range links {
		rec, err := app.FindRecordById("contractors", l.GetString("contractor"))
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load contractor %s: %w", l.GetString("contractor"), err)
		}
		out = append(out, services.Contractor{ID: rec.Id, Name: rec.GetString("name")})
	}
	return out, nil
}

// latestTechnical returns the highest technical round of a package, or
// services.ErrNoData when there is none.
func latestTechnical(app *pocketbase.PocketBase, packageID string) (*services.TechnicalEvaluation, error) {
	techCol, err := app.FindCollectionByNameOrId("technical_evaluations")
	if err != nil {
		return nil, fmt.Errorf("collection not found: %w", err)
	}
	records, err := app.FindRecordsByFilter(techCol, "package = {:p}", "-round_number", 1, 0, map[string]any{"p": packageID})
	if err != nil {
		return nil, fmt.Errorf("query technical rounds: %w", err)
	}
	if len(records) == 0 {
		return nil, services.ErrNoData
	}
	rec := records[0]

	te := &services.TechnicalEvaluation{
		RoundNumber: rec.GetInt("round_number"),
		Status:      rec.GetString("status"),
	}
	for field, dst := range map[string]any{
		"scopes":             &te.Scopes,
		"scores":             &te.Scores,
		"proposals_uploaded": &te.ProposalsUploaded,
	} {
		if blankJSON(jsonField(rec, field)) {
			continue
		}
		if err := rec.UnmarshalJSONField(field, dst); err != nil {
			return nil, &services.ValidationError{Errors: []services.FieldError{{Field: field, Message: err.Error()}}}
		}
	}
	if err := services.ValidateTechnical(te); err != nil {
		return nil, err
	}
	return te, nil
}

// commercialSummary normalizes every round of every asset in the package
// with each round's stored settings. Rounds without a BOQ are left out, so
// an asset whose newest round has no BOQ yet ranks on its latest priced one.
func commercialSummary(app *pocketbase.PocketBase, cfg *config.Config, packageID string) (*services.CommercialSummary, error) {
	assetsCol, err := app.FindCollectionByNameOrId("assets")
	if err != nil {
		return nil, fmt.Errorf("collection not found: %w", err)
	}
	evalsCol, err := app.FindCollectionByNameOrId("commercial_evaluations")
	if err != nil {
		return nil, fmt.Errorf("collection not found: %w", err)
	}

	assets, err := app.FindRecordsByFilter(assetsCol, "package = {:p}", "sort_order", 0, 0, map[string]any{"p": packageID})
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}

	summary := &services.CommercialSummary{Assets: []services.AssetCommercial{}}
	for _, asset := range assets {
		ac := services.AssetCommercial{AssetID: asset.Id, AssetName: asset.GetString("name"), Rounds: []services.CommercialRound{}}

		rounds, err := app.FindRecordsByFilter(evalsCol, "asset = {:a}", "round_number", 0, 0, map[string]any{"a": asset.Id})
		if err != nil {
			return nil, fmt.Errorf("query rounds of asset %s: %w", asset.Id, err)
		}
		for _, r := range rounds {
			ev, err := loadEvaluation(app, r.Id, cfg.Settings())
			if err != nil {
				return nil, err
			}
			cmp, err := ev.compare(ev.Settings)
			if errors.Is(err, services.ErrNoData) {
				continue
			}
			if err != nil {
				return nil, err
			}
			ac.Rounds = append(ac.Rounds, services.CommercialRound{
				RoundNumber: r.GetInt("round_number"),
				Totals:      cmp.Totals(),
			})
		}
		summary.Assets = append(summary.Assets, ac)
	}
	return summary, nil
}

// HandlePackageRankings returns the technical and commercial leaderboards
// of a package and the contractors eligible for award. Nothing is eligible
// until the latest technical round is review-complete.
// Route: GET /api/packages/{packageId}/rankings
func HandlePackageRankings(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		packageID := e.Request.PathValue("packageId")
		if _, err := app.FindRecordById("packages", packageID); err != nil {
			return respondError(e, "rankings", fmt.Errorf("package %s: %w", packageID, errNotFound))
		}

		contractors, err := packageContractors(app, packageID)
		if err != nil {
			return respondError(e, "rankings", err)
		}

		resp := rankingsResponse{PackageID: packageID, WeightTotals: map[string]float64{}}

		te, err := latestTechnical(app, packageID)
		switch {
		case errors.Is(err, services.ErrNoData):
			resp.Technical = []services.TechnicalRank{}
		case err != nil:
			return respondError(e, "rankings", err)
		default:
			resp.TechnicalRound = te.RoundNumber
			resp.ReviewComplete = te.ReviewComplete()
			resp.Technical = services.RankTechnical(te, contractors)
			resp.WeightTotals = services.WeightTotals(te.Scopes)
		}

		summary, err := commercialSummary(app, cfg, packageID)
		if err != nil {
			return respondError(e, "rankings", err)
		}
		resp.Assets = summary.Assets
		resp.Commercial = services.RankCommercial(summary)
		resp.Eligible = services.EligibleForAward(resp.Technical, resp.Commercial, resp.ReviewComplete)

		return e.JSON(http.StatusOK, resp)
	}
}
