// Package services holds the bid comparison logic for BOQ-based tenders:
// normalization of contractor bids, rankings, PTC generation, boundary
// validation and the Excel/PDF exports built on top of them.
package services

// BOQLineItem is a single priced unit of work.
type BOQLineItem struct {
	ID          string  `json:"id" validate:"required"`
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity" validate:"gte=0"`
	Unit        string  `json:"unit"`
}

// BOQSection groups line items. Item order is for display only.
type BOQSection struct {
	ID    string        `json:"id" validate:"required"`
	Code  string        `json:"code"`
	Name  string        `json:"name"`
	Items []BOQLineItem `json:"items" validate:"dive"`
}

// BOQDivision groups sections.
type BOQDivision struct {
	ID       string       `json:"id" validate:"required"`
	Code     string       `json:"code"`
	Name     string       `json:"name"`
	Sections []BOQSection `json:"sections" validate:"dive"`
}

// BOQData is the full bill of quantities, divisions in display order.
type BOQData []BOQDivision

// FlatItem is a line item together with the codes of its parents.
type FlatItem struct {
	DivisionCode string
	DivisionName string
	SectionCode  string
	SectionName  string
	Item         BOQLineItem
}

// FlattenItems walks the tree depth-first (division, section, item).
func FlattenItems(boq BOQData) []FlatItem {
	var out []FlatItem
	for _, d := range boq {
		for _, s := range d.Sections {
			for _, it := range s.Items {
				out = append(out, FlatItem{
					DivisionCode: d.Code,
					DivisionName: d.Name,
					SectionCode:  s.Code,
					SectionName:  s.Name,
					Item:         it,
				})
			}
		}
	}
	return out
}

// FlattenItemIDs returns every line-item id in depth-first order.
func FlattenItemIDs(boq BOQData) []string {
	var ids []string
	for _, d := range boq {
		for _, s := range d.Sections {
			for _, it := range s.Items {
				ids = append(ids, it.ID)
			}
		}
	}
	return ids
}

// ItemCount returns the number of line items in the tree.
func (b BOQData) ItemCount() int {
	n := 0
	for _, d := range b {
		for _, s := range d.Sections {
			n += len(s.Items)
		}
	}
	return n
}
