package services

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// PTCCategory classifies a post-tender clarification query.
type PTCCategory string

const (
	PTCExclusions       PTCCategory = "exclusions"
	PTCDeviations       PTCCategory = "deviations"
	PTCPricingAnomalies PTCCategory = "pricing_anomalies"
	PTCArithmeticChecks PTCCategory = "arithmetic_checks"
)

// PTCCategories lists categories in display order.
var PTCCategories = []PTCCategory{PTCExclusions, PTCDeviations, PTCPricingAnomalies, PTCArithmeticChecks}

// PTCStatus is pending until the evaluator closes the query.
type PTCStatus string

const (
	PTCPending PTCStatus = "pending"
	PTCClosed  PTCStatus = "closed"
)

// DefaultDeviationThreshold flags a priced item more than 30% away from
// the item median.
const DefaultDeviationThreshold = 0.30

// PTCItem is one clarification query raised with a contractor.
type PTCItem struct {
	ID       string      `json:"id"`
	Category PTCCategory `json:"category" validate:"oneof=exclusions deviations pricing_anomalies arithmetic_checks"`
	ItemID   string      `json:"itemId,omitempty"`
	Query    string      `json:"query" validate:"required"`
	Response string      `json:"response"`
	Status   PTCStatus   `json:"status" validate:"oneof=pending closed"`
}

// ContractorPTCs holds every query raised with one contractor.
type ContractorPTCs struct {
	ContractorID   string    `json:"contractorId"`
	ContractorName string    `json:"contractorName"`
	Items          []PTCItem `json:"items"`
}

// GeneratePTCs raises queries from the raw bids: included items become
// exclusions, unpriced items and outlier prices become pricing anomalies,
// arithmetic errors become arithmetic checks. threshold is the relative
// deviation from the item median beyond which a price is an outlier; 0
// disables outlier detection.
func GeneratePTCs(n *Normalizer, bids []Bid, threshold float64) []ContractorPTCs {
	medians := make(map[string]float64, len(n.ids))
	if threshold > 0 {
		strict := NormalizationSettings{NormalizeArithmeticErrors: true, Algorithm: AlgorithmMedian}
		for _, id := range n.ids {
			medians[id] = FillValue(n.Candidates(id, bids, strict), AlgorithmMedian)
		}
	}

	out := make([]ContractorPTCs, 0, len(bids))
	for _, b := range bids {
		cp := ContractorPTCs{ContractorID: b.ContractorID, ContractorName: b.ContractorName, Items: []PTCItem{}}
		for _, id := range n.ids {
			label := n.itemLabel(id)
			c := b.Cell(id)
			switch c.Kind() {
			case CellIncluded:
				cp.Items = append(cp.Items, newPTC(PTCExclusions, id,
					fmt.Sprintf("Please confirm which item the cost of %s is included in.", label)))
			case CellUnpriced:
				cp.Items = append(cp.Items, newPTC(PTCPricingAnomalies, id,
					fmt.Sprintf("%s is unpriced. Please submit a rate or confirm it is excluded.", label)))
			case CellArithmeticError:
				s, calc, _ := c.Discrepancy()
				cp.Items = append(cp.Items, newPTC(PTCArithmeticChecks, id,
					fmt.Sprintf("The submitted amount for %s (%.2f) does not equal quantity x rate (%.2f). Please confirm the correct amount.", label, s, calc)))
			case CellPriced:
				p, _ := c.Price()
				m := medians[id]
				if threshold > 0 && m > 0 && math.Abs(p-m)/m > threshold {
					cp.Items = append(cp.Items, newPTC(PTCPricingAnomalies, id,
						fmt.Sprintf("The price for %s (%.2f) deviates %.0f%% from the tender median (%.2f). Please confirm scope and rate.", label, p, math.Abs(p-m)/m*100, m)))
				}
			}
		}
		out = append(out, cp)
	}
	return out
}

func (n *Normalizer) itemLabel(id string) string {
	it, ok := n.items[id]
	if !ok {
		return id
	}
	if it.Code != "" {
		return fmt.Sprintf("item %s %q", it.Code, it.Description)
	}
	return fmt.Sprintf("item %q", it.Description)
}

func newPTC(cat PTCCategory, itemID, query string) PTCItem {
	return PTCItem{
		ID:       uuid.NewString(),
		Category: cat,
		ItemID:   itemID,
		Query:    query,
		Status:   PTCPending,
	}
}

// FindPTC locates a query across contractors.
func FindPTC(all []ContractorPTCs, ptcID string) (contractor, item int, ok bool) {
	for ci := range all {
		for ii := range all[ci].Items {
			if all[ci].Items[ii].ID == ptcID {
				return ci, ii, true
			}
		}
	}
	return -1, -1, false
}

// ToggleStatus flips a query between pending and closed.
func ToggleStatus(all []ContractorPTCs, ptcID string) (PTCItem, bool) {
	ci, ii, ok := FindPTC(all, ptcID)
	if !ok {
		return PTCItem{}, false
	}
	it := &all[ci].Items[ii]
	if it.Status == PTCClosed {
		it.Status = PTCPending
	} else {
		it.Status = PTCClosed
	}
	return *it, true
}

// SetResponse records the contractor's response text.
func SetResponse(all []ContractorPTCs, ptcID, response string) (PTCItem, bool) {
	ci, ii, ok := FindPTC(all, ptcID)
	if !ok {
		return PTCItem{}, false
	}
	all[ci].Items[ii].Response = response
	return all[ci].Items[ii], true
}

// AddDeviation raises a manual deviations query for a contractor. The
// contractor entry is created if it does not exist yet.
func AddDeviation(all []ContractorPTCs, contractor Contractor, itemID, query string) ([]ContractorPTCs, PTCItem) {
	it := newPTC(PTCDeviations, itemID, query)
	for i := range all {
		if all[i].ContractorID == contractor.ID {
			all[i].Items = append(all[i].Items, it)
			return all, it
		}
	}
	return append(all, ContractorPTCs{
		ContractorID:   contractor.ID,
		ContractorName: contractor.Name,
		Items:          []PTCItem{it},
	}), it
}

// PTCCount is the pending/closed tally of one category.
type PTCCount struct {
	Category PTCCategory `json:"category"`
	Pending  int         `json:"pending"`
	Closed   int         `json:"closed"`
}

// SummarizePTCs tallies one contractor's queries per category, all
// categories listed.
func SummarizePTCs(cp ContractorPTCs) []PTCCount {
	counts := make(map[PTCCategory]*PTCCount, len(PTCCategories))
	out := make([]PTCCount, len(PTCCategories))
	for i, cat := range PTCCategories {
		out[i].Category = cat
		counts[cat] = &out[i]
	}
	for _, it := range cp.Items {
		c, ok := counts[it.Category]
		if !ok {
			continue
		}
		if it.Status == PTCClosed {
			c.Closed++
		} else {
			c.Pending++
		}
	}
	return out
}

// MergePTCs carries evaluator work over a regeneration: generated queries
// that match an existing one by category and item keep its id, status and
// response, and manual deviations are kept as they are.
func MergePTCs(existing, generated []ContractorPTCs) []ContractorPTCs {
	type key struct {
		category PTCCategory
		itemID   string
	}
	prev := make(map[string]map[key]PTCItem, len(existing))
	deviations := make(map[string][]PTCItem, len(existing))
	for _, cp := range existing {
		m := make(map[key]PTCItem, len(cp.Items))
		for _, it := range cp.Items {
			if it.Category == PTCDeviations {
				deviations[cp.ContractorID] = append(deviations[cp.ContractorID], it)
				continue
			}
			m[key{it.Category, it.ItemID}] = it
		}
		prev[cp.ContractorID] = m
	}

	out := make([]ContractorPTCs, 0, len(generated))
	seen := make(map[string]bool, len(generated))
	for _, cp := range generated {
		seen[cp.ContractorID] = true
		merged := ContractorPTCs{ContractorID: cp.ContractorID, ContractorName: cp.ContractorName, Items: []PTCItem{}}
		for _, it := range cp.Items {
			if old, ok := prev[cp.ContractorID][key{it.Category, it.ItemID}]; ok {
				it.ID = old.ID
				it.Status = old.Status
				it.Response = old.Response
			}
			merged.Items = append(merged.Items, it)
		}
		merged.Items = append(merged.Items, deviations[cp.ContractorID]...)
		out = append(out, merged)
	}
	for _, cp := range existing {
		if !seen[cp.ContractorID] && len(deviations[cp.ContractorID]) > 0 {
			out = append(out, ContractorPTCs{
				ContractorID:   cp.ContractorID,
				ContractorName: cp.ContractorName,
				Items:          deviations[cp.ContractorID],
			})
		}
	}
	return out
}
