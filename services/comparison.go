package services

// Comparison is everything the bid comparison grid renders: the flattened
// BOQ, normalized bids (lowest first), fill values and the issues found in
// the raw bids.
type Comparison struct {
	Items     []FlatItem            `json:"-"`
	Settings  NormalizationSettings `json:"settings"`
	Bids      []NormalizedBid       `json:"bids"`
	Fills     map[string]float64    `json:"fills"`
	Issues    []CellIssue           `json:"issues"`
	Overrides []OverrideEntry       `json:"overrides"`
}

// LowestBidder returns the contractor with the lowest normalized total.
func (c *Comparison) LowestBidder() (NormalizedBid, bool) {
	if c == nil || len(c.Bids) == 0 {
		return NormalizedBid{}, false
	}
	return c.Bids[0], true
}

// Totals lists each contractor's normalized total in ranking order.
func (c *Comparison) Totals() []ContractorTotal {
	out := make([]ContractorTotal, 0, len(c.Bids))
	for _, b := range c.Bids {
		out = append(out, ContractorTotal{
			ContractorID:   b.ContractorID,
			ContractorName: b.ContractorName,
			TotalAmount:    b.TotalAmount,
		})
	}
	return out
}

// BuildComparison validates the boundary inputs and runs the engine.
func BuildComparison(boq BOQData, raws []ContractorBid, settings NormalizationSettings, overrides Overrides) (*Comparison, error) {
	if len(boq) == 0 {
		return nil, ErrNoData
	}
	if err := ValidateBOQ(boq); err != nil {
		return nil, err
	}
	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}
	n := NewNormalizer(boq)
	if err := ValidateBidRefs(raws, n.ItemIDs()); err != nil {
		return nil, err
	}
	bids, err := ParseBids(raws)
	if err != nil {
		return nil, err
	}
	return n.Compare(bids, settings, overrides), nil
}

// Compare runs normalization and issue detection over already-parsed bids.
func (n *Normalizer) Compare(bids []Bid, settings NormalizationSettings, overrides Overrides) *Comparison {
	return &Comparison{
		Items:     FlattenItems(n.boq),
		Settings:  settings,
		Bids:      n.Normalize(bids, settings, overrides),
		Fills:     n.FillValues(bids, settings),
		Issues:    n.Issues(bids),
		Overrides: overrides.Entries(),
	}
}
