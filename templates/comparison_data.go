// Package templates renders the HTMX pages and fragments served by the
// handlers. Components live in .templ files; run `templ generate` after
// editing them.
package templates

import (
	"strconv"
	"strings"

	"tendereval/services"
)

// ComparisonData is everything the bid comparison grid needs.
type ComparisonData struct {
	EvaluationID string
	Export       services.ExportData
	// Issues maps "<contractorId>-<itemId>" to the raw cell kind.
	Issues map[string]string
}

var algorithms = []services.Algorithm{services.AlgorithmMedian, services.AlgorithmLowest}

func (d ComparisonData) basePath() string {
	return "/evaluations/" + d.EvaluationID
}

// groupColspan spans a division or section label across the grid.
func (d ComparisonData) groupColspan() string {
	return strconv.Itoa(3 + len(d.Export.Contractors))
}

// columnContractor returns the contractor id of grid column i.
func (d ComparisonData) columnContractor(i int) string {
	if i < len(d.Export.ContractorIDs) {
		return d.Export.ContractorIDs[i]
	}
	return ""
}

func cellKey(contractorID, itemID string) string {
	if contractorID == "" {
		return ""
	}
	return contractorID + "-" + itemID
}

func (d ComparisonData) cellClass(c services.ExportCell, key string) string {
	classes := []string{"num", "origin-" + string(c.Origin)}
	if kind, ok := d.Issues[key]; ok {
		classes = append(classes, "issue-"+kind)
	}
	return strings.Join(classes, " ")
}
