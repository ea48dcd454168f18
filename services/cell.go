package services

import (
	"encoding/json"
	"fmt"
)

// CellKind tags what a contractor submitted for one line item.
type CellKind int

const (
	CellUnpriced CellKind = iota
	CellPriced
	CellIncluded
	CellArithmeticError
)

var cellKindNames = map[CellKind]string{
	CellUnpriced:        "unpriced",
	CellPriced:          "priced",
	CellIncluded:        "included",
	CellArithmeticError: "arithmetic_error",
}

func (k CellKind) String() string {
	if s, ok := cellKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("CellKind(%d)", int(k))
}

// Cell is one contractor's submission for one line item. The zero value is
// an unpriced cell. Cells are built with Priced, Included, Unpriced and
// ArithmeticError so a cell can never be both included and priced.
type Cell struct {
	kind       CellKind
	price      float64
	submitted  float64
	calculated float64
}

// Priced is a normal priced cell.
func Priced(amount float64) Cell {
	return Cell{kind: CellPriced, price: amount}
}

// Included marks an item whose cost the contractor folded into another item.
func Included() Cell {
	return Cell{kind: CellIncluded}
}

// Unpriced marks an item the contractor left blank.
func Unpriced() Cell {
	return Cell{kind: CellUnpriced}
}

// ArithmeticError marks an item whose submitted total differs from
// quantity × rate. price is the amount carried in the bid's price column.
func ArithmeticError(price, submitted, calculated float64) Cell {
	return Cell{kind: CellArithmeticError, price: price, submitted: submitted, calculated: calculated}
}

func (c Cell) Kind() CellKind { return c.kind }

// Price returns the submitted price and whether there is one. Included and
// unpriced cells have none.
func (c Cell) Price() (float64, bool) {
	switch c.kind {
	case CellPriced, CellArithmeticError:
		return c.price, true
	}
	return 0, false
}

// Discrepancy returns the submitted and calculated totals of an
// arithmetic-error cell.
func (c Cell) Discrepancy() (submitted, calculated float64, ok bool) {
	if c.kind != CellArithmeticError {
		return 0, 0, false
	}
	return c.submitted, c.calculated, true
}

type cellJSON struct {
	Kind       string   `json:"kind"`
	Price      *float64 `json:"price,omitempty"`
	Submitted  *float64 `json:"submitted,omitempty"`
	Calculated *float64 `json:"calculated,omitempty"`
}

func (c Cell) MarshalJSON() ([]byte, error) {
	out := cellJSON{Kind: c.kind.String()}
	if p, ok := c.Price(); ok {
		out.Price = &p
	}
	if s, calc, ok := c.Discrepancy(); ok {
		out.Submitted = &s
		out.Calculated = &calc
	}
	return json.Marshal(out)
}
