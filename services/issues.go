package services

// CellIssue annotates one grid cell of a raw, pre-normalization bid.
type CellIssue struct {
	ContractorID string   `json:"contractorId"`
	ItemID       string   `json:"itemId"`
	Kind         CellKind `json:"-"`
	KindName     string   `json:"kind"`
	Submitted    *float64 `json:"submitted,omitempty"`
	Calculated   *float64 `json:"calculated,omitempty"`
}

// Key returns the "<contractorId>-<itemId>" cell key used by the UI.
func (ci CellIssue) Key() string {
	return OverrideKey{ContractorID: ci.ContractorID, ItemID: ci.ItemID}.String()
}

// Issues lists the included, unpriced and arithmetic-error cells of raw
// bids, contractor by contractor in BOQ order. Pass raw bids, never
// normalized output: normalization hides what the contractor submitted.
func (n *Normalizer) Issues(bids []Bid) []CellIssue {
	var out []CellIssue
	for _, b := range bids {
		for _, id := range n.ids {
			c := b.Cell(id)
			if c.Kind() == CellPriced {
				continue
			}
			issue := CellIssue{
				ContractorID: b.ContractorID,
				ItemID:       id,
				Kind:         c.Kind(),
				KindName:     c.Kind().String(),
			}
			if s, calc, ok := c.Discrepancy(); ok {
				issue.Submitted = &s
				issue.Calculated = &calc
			}
			out = append(out, issue)
		}
	}
	return out
}

// IssueCounts tallies a contractor's issues by kind.
type IssueCounts struct {
	ContractorID     string `json:"contractorId"`
	Included         int    `json:"included"`
	Unpriced         int    `json:"unpriced"`
	ArithmeticErrors int    `json:"arithmeticErrors"`
}

// SummarizeIssues counts issues per contractor, in first-seen order.
func SummarizeIssues(issues []CellIssue) []IssueCounts {
	idx := make(map[string]int)
	var out []IssueCounts
	for _, is := range issues {
		i, ok := idx[is.ContractorID]
		if !ok {
			i = len(out)
			idx[is.ContractorID] = i
			out = append(out, IssueCounts{ContractorID: is.ContractorID})
		}
		switch is.Kind {
		case CellIncluded:
			out[i].Included++
		case CellUnpriced:
			out[i].Unpriced++
		case CellArithmeticError:
			out[i].ArithmeticErrors++
		}
	}
	return out
}
