package services

// ArithmeticDiscrepancy is the wire form of an arithmetic error: the
// contractor's own line total against quantity × rate.
type ArithmeticDiscrepancy struct {
	Submitted  float64 `json:"submitted"`
	Calculated float64 `json:"calculated"`
}

// ContractorBid is the persisted and exchanged shape of one contractor's
// submission. Prices hold null for included and unpriced items.
type ContractorBid struct {
	ContractorID     string                           `json:"contractorId" validate:"required"`
	ContractorName   string                           `json:"contractorName"`
	Prices           map[string]*float64              `json:"prices"`
	IncludedItems    []string                         `json:"includedItems"`
	ArithmeticErrors map[string]ArithmeticDiscrepancy `json:"arithmeticErrors"`
	TotalAmount      float64                          `json:"totalAmount"`
}

// Bid is a contractor submission decoded into tagged cells.
type Bid struct {
	ContractorID   string
	ContractorName string
	Cells          map[string]Cell
}

// NewBid builds a bid from cells keyed by line-item id.
func NewBid(contractorID, contractorName string, cells map[string]Cell) Bid {
	if cells == nil {
		cells = map[string]Cell{}
	}
	return Bid{ContractorID: contractorID, ContractorName: contractorName, Cells: cells}
}

// Cell returns the cell for itemID. Items with no entry are unpriced.
func (b Bid) Cell(itemID string) Cell {
	return b.Cells[itemID]
}

// ParseBid decodes the wire shape into cells, rejecting side-channel state
// that contradicts itself.
func ParseBid(raw ContractorBid) (Bid, error) {
	verr := &ValidationError{}
	if raw.ContractorID == "" {
		verr.add("contractorId", "is required")
	}

	cells := make(map[string]Cell, len(raw.Prices))
	for id, p := range raw.Prices {
		if p == nil {
			cells[id] = Unpriced()
			continue
		}
		cells[id] = Priced(*p)
	}

	for id, d := range raw.ArithmeticErrors {
		price := d.Submitted
		if p := raw.Prices[id]; p != nil {
			price = *p
		}
		cells[id] = ArithmeticError(price, d.Submitted, d.Calculated)
	}

	for _, id := range raw.IncludedItems {
		if p := raw.Prices[id]; p != nil {
			verr.add("includedItems."+id, "included item must not carry a price")
			continue
		}
		if _, ok := raw.ArithmeticErrors[id]; ok {
			verr.add("includedItems."+id, "included item cannot also have an arithmetic error")
			continue
		}
		cells[id] = Included()
	}

	if err := verr.orNil(); err != nil {
		return Bid{}, err
	}
	return NewBid(raw.ContractorID, raw.ContractorName, cells), nil
}

// ParseBids decodes a list of bids, collecting every violation.
func ParseBids(raws []ContractorBid) ([]Bid, error) {
	out := make([]Bid, 0, len(raws))
	verr := &ValidationError{}
	seen := make(map[string]bool, len(raws))
	for i, raw := range raws {
		if seen[raw.ContractorID] {
			verr.add("bids", "duplicate contractor %q", raw.ContractorID)
			continue
		}
		seen[raw.ContractorID] = true

		b, err := ParseBid(raw)
		if err != nil {
			if ve, ok := err.(*ValidationError); ok {
				for _, fe := range ve.Errors {
					verr.add(fieldIndex("bids", i, fe.Field), "%s", fe.Message)
				}
				continue
			}
			return nil, err
		}
		out = append(out, b)
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return out, nil
}

// Raw converts the bid back to the wire shape over itemIDs. TotalAmount is
// the rounded sum of non-null prices.
func (b Bid) Raw(itemIDs []string) ContractorBid {
	raw := ContractorBid{
		ContractorID:     b.ContractorID,
		ContractorName:   b.ContractorName,
		Prices:           make(map[string]*float64, len(itemIDs)),
		IncludedItems:    []string{},
		ArithmeticErrors: map[string]ArithmeticDiscrepancy{},
	}
	var prices []float64
	for _, id := range itemIDs {
		c := b.Cell(id)
		if p, ok := c.Price(); ok {
			raw.Prices[id] = &p
			prices = append(prices, p)
		} else {
			raw.Prices[id] = nil
		}
		switch c.Kind() {
		case CellIncluded:
			raw.IncludedItems = append(raw.IncludedItems, id)
		case CellArithmeticError:
			s, calc, _ := c.Discrepancy()
			raw.ArithmeticErrors[id] = ArithmeticDiscrepancy{Submitted: s, Calculated: calc}
		}
	}
	raw.TotalAmount = SumCents(prices)
	return raw
}
