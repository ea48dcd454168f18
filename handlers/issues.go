package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"tendereval/config"
	"tendereval/services"
)

type issuesResponse struct {
	Issues  []services.CellIssue   `json:"issues"`
	Summary []services.IssueCounts `json:"summary"`
}

// HandleIssues lists the included, unpriced and arithmetic-error cells of
// the raw bids with a per-contractor tally.
func HandleIssues(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ev, err := evaluationFor(e, app, cfg)
		if err != nil {
			return respondError(e, "issues", err)
		}

		issues := ev.Normalizer.Issues(ev.Bids)
		if issues == nil {
			issues = []services.CellIssue{}
		}
		summary := services.SummarizeIssues(issues)
		if summary == nil {
			summary = []services.IssueCounts{}
		}
		return e.JSON(http.StatusOK, issuesResponse{Issues: issues, Summary: summary})
	}
}
