package services

import (
	"cmp"
	"slices"
)

// Algorithm selects how the fill value for a line item is derived from the
// other contractors' prices.
type Algorithm string

const (
	AlgorithmMedian Algorithm = "median"
	AlgorithmLowest Algorithm = "lowest"
)

// NormalizationSettings are supplied per call; they are not an entity.
type NormalizationSettings struct {
	NormalizeUnpriced         bool      `json:"normalizeUnpriced"`
	NormalizeArithmeticErrors bool      `json:"normalizeArithmeticErrors"`
	Algorithm                 Algorithm `json:"algorithm" validate:"required,oneof=median lowest"`
}

// DefaultSettings normalizes both unpriced items and arithmetic errors
// using the median.
func DefaultSettings() NormalizationSettings {
	return NormalizationSettings{
		NormalizeUnpriced:         true,
		NormalizeArithmeticErrors: true,
		Algorithm:                 AlgorithmMedian,
	}
}

// PriceOrigin says where a normalized price came from.
type PriceOrigin string

const (
	OriginSubmitted PriceOrigin = "submitted"
	OriginOverride  PriceOrigin = "override"
	OriginFill      PriceOrigin = "fill"
	OriginIncluded  PriceOrigin = "included"
	OriginUnpriced  PriceOrigin = "unpriced"
)

// NormalizedLine is the effective price of one item for one contractor.
type NormalizedLine struct {
	ItemID string      `json:"itemId"`
	Price  *float64    `json:"price"`
	Origin PriceOrigin `json:"origin"`
	Source Cell        `json:"source"`
}

// NormalizedBid is a contractor's bid after normalization, lines in BOQ order.
type NormalizedBid struct {
	ContractorID   string           `json:"contractorId"`
	ContractorName string           `json:"contractorName"`
	Lines          []NormalizedLine `json:"lines"`
	TotalAmount    float64          `json:"totalAmount"`
}

// Line returns the normalized line for itemID.
func (nb NormalizedBid) Line(itemID string) (NormalizedLine, bool) {
	for _, l := range nb.Lines {
		if l.ItemID == itemID {
			return l, true
		}
	}
	return NormalizedLine{}, false
}

// Raw converts the normalized bid to the wire shape for persistence. Filled
// lines carry their fill value; overridden lines keep their submitted form
// because overrides are stored separately and reapplied on every call.
// Included and arithmetic-error flags are kept. TotalAmount is the
// normalized total, so normalizing the result again with the same settings
// and overrides yields the same totals.
func (nb NormalizedBid) Raw() ContractorBid {
	raw := ContractorBid{
		ContractorID:     nb.ContractorID,
		ContractorName:   nb.ContractorName,
		Prices:           make(map[string]*float64, len(nb.Lines)),
		IncludedItems:    []string{},
		ArithmeticErrors: map[string]ArithmeticDiscrepancy{},
		TotalAmount:      nb.TotalAmount,
	}
	for _, l := range nb.Lines {
		switch {
		case l.Origin == OriginOverride:
			if p, ok := l.Source.Price(); ok {
				raw.Prices[l.ItemID] = &p
			} else {
				raw.Prices[l.ItemID] = nil
			}
		case l.Price != nil:
			p := *l.Price
			raw.Prices[l.ItemID] = &p
		default:
			raw.Prices[l.ItemID] = nil
		}

		switch l.Source.Kind() {
		case CellIncluded:
			raw.IncludedItems = append(raw.IncludedItems, l.ItemID)
		case CellArithmeticError:
			s, calc, _ := l.Source.Discrepancy()
			raw.ArithmeticErrors[l.ItemID] = ArithmeticDiscrepancy{Submitted: s, Calculated: calc}
		}
	}
	return raw
}

// Normalizer caches the flattened line-item ids of one BOQ so repeated
// normalization (every toggle or override edit) does not walk the tree.
type Normalizer struct {
	boq   BOQData
	ids   []string
	items map[string]BOQLineItem
}

// NewNormalizer flattens boq once.
func NewNormalizer(boq BOQData) *Normalizer {
	flat := FlattenItems(boq)
	n := &Normalizer{
		boq:   boq,
		ids:   make([]string, len(flat)),
		items: make(map[string]BOQLineItem, len(flat)),
	}
	for i, f := range flat {
		n.ids[i] = f.Item.ID
		n.items[f.Item.ID] = f.Item
	}
	return n
}

// BOQ returns the tree the normalizer was built from.
func (n *Normalizer) BOQ() BOQData { return n.boq }

// ItemIDs returns the flattened ids in BOQ order. The slice is shared.
func (n *Normalizer) ItemIDs() []string { return n.ids }

// Item looks up a line item by id.
func (n *Normalizer) Item(id string) (BOQLineItem, bool) {
	it, ok := n.items[id]
	return it, ok
}

// Candidates returns the prices that feed the fill value of itemID. Included
// items never contribute, for any contractor. Arithmetic errors are left out
// only while they are themselves being normalized.
func (n *Normalizer) Candidates(itemID string, bids []Bid, settings NormalizationSettings) []float64 {
	var pool []float64
	for _, b := range bids {
		c := b.Cell(itemID)
		if c.Kind() == CellIncluded {
			continue
		}
		if c.Kind() == CellArithmeticError && settings.NormalizeArithmeticErrors {
			continue
		}
		if p, ok := c.Price(); ok {
			pool = append(pool, p)
		}
	}
	return pool
}

// FillValues computes the fill value of every line item.
func (n *Normalizer) FillValues(bids []Bid, settings NormalizationSettings) map[string]float64 {
	fills := make(map[string]float64, len(n.ids))
	for _, id := range n.ids {
		fills[id] = FillValue(n.Candidates(id, bids, settings), settings.Algorithm)
	}
	return fills
}

// Normalize computes effective prices and totals for every bid and returns
// them sorted by total ascending, so index 0 is the lowest bidder. Ties keep
// input order. It never fails: missing prices and empty pools degrade to
// null and 0.
func (n *Normalizer) Normalize(bids []Bid, settings NormalizationSettings, overrides Overrides) []NormalizedBid {
	fills := n.FillValues(bids, settings)

	out := make([]NormalizedBid, 0, len(bids))
	for _, b := range bids {
		nb := NormalizedBid{
			ContractorID:   b.ContractorID,
			ContractorName: b.ContractorName,
			Lines:          make([]NormalizedLine, 0, len(n.ids)),
		}
		var prices []float64
		for _, id := range n.ids {
			line := effectiveLine(b, id, fills[id], settings, overrides)
			if line.Price != nil {
				prices = append(prices, *line.Price)
			}
			nb.Lines = append(nb.Lines, line)
		}
		nb.TotalAmount = SumCents(prices)
		out = append(out, nb)
	}

	slices.SortStableFunc(out, func(a, b NormalizedBid) int {
		return cmp.Compare(a.TotalAmount, b.TotalAmount)
	})
	return out
}

func effectiveLine(b Bid, itemID string, fill float64, settings NormalizationSettings, overrides Overrides) NormalizedLine {
	c := b.Cell(itemID)
	line := NormalizedLine{ItemID: itemID, Source: c}

	if v, ok := overrides.Lookup(b.ContractorID, itemID); ok {
		line.Price = &v
		line.Origin = OriginOverride
		return line
	}

	switch c.Kind() {
	case CellIncluded:
		line.Origin = OriginIncluded
		return line
	case CellUnpriced:
		if settings.NormalizeUnpriced {
			line.Price = &fill
			line.Origin = OriginFill
			return line
		}
		line.Origin = OriginUnpriced
		return line
	case CellArithmeticError:
		if settings.NormalizeArithmeticErrors {
			line.Price = &fill
			line.Origin = OriginFill
			return line
		}
	}

	p, _ := c.Price()
	line.Price = &p
	line.Origin = OriginSubmitted
	return line
}

// FillValue derives the value used for a missing or erroneous price. An
// empty pool yields 0. Unknown algorithms fall back to the median.
func FillValue(pool []float64, algorithm Algorithm) float64 {
	if len(pool) == 0 {
		return 0
	}
	if algorithm == AlgorithmLowest {
		return slices.Min(pool)
	}
	return Median(pool)
}

// Median returns the middle value, or the mean of the two middle values
// for an even count. It does not modify values.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
