package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCell_Kinds(t *testing.T) {
	tests := []struct {
		name      string
		cell      Cell
		kind      CellKind
		price     float64
		hasPrice  bool
		kindLabel string
	}{
		{"zero value", Cell{}, CellUnpriced, 0, false, "unpriced"},
		{"priced", Priced(12.5), CellPriced, 12.5, true, "priced"},
		{"included", Included(), CellIncluded, 0, false, "included"},
		{"unpriced", Unpriced(), CellUnpriced, 0, false, "unpriced"},
		{"arithmetic error", ArithmeticError(100, 100, 90), CellArithmeticError, 100, true, "arithmetic_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.cell.Kind())
			p, ok := tt.cell.Price()
			assert.Equal(t, tt.hasPrice, ok)
			assert.Equal(t, tt.price, p)
			assert.Equal(t, tt.kindLabel, tt.cell.Kind().String())
		})
	}
}

func TestCell_Discrepancy(t *testing.T) {
	s, c, ok := ArithmeticError(120, 120, 110).Discrepancy()
	require.True(t, ok)
	assert.Equal(t, 120.0, s)
	assert.Equal(t, 110.0, c)

	_, _, ok = Priced(5).Discrepancy()
	assert.False(t, ok)
}

func TestCell_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(ArithmeticError(10, 10, 12))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"arithmetic_error","price":10,"submitted":10,"calculated":12}`, string(b))

	b, err = json.Marshal(Included())
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"included"}`, string(b))
}

func TestParseBid(t *testing.T) {
	raw := ContractorBid{
		ContractorID:   "c1",
		ContractorName: "One",
		Prices: map[string]*float64{
			"item-1": ptr(100),
			"item-2": nil,
			"item-3": nil,
			"item-4": ptr(250),
		},
		IncludedItems:    []string{"item-3"},
		ArithmeticErrors: map[string]ArithmeticDiscrepancy{"item-4": {Submitted: 250, Calculated: 240}},
	}
	b, err := ParseBid(raw)
	require.NoError(t, err)

	assert.Equal(t, CellPriced, b.Cell("item-1").Kind())
	assert.Equal(t, CellUnpriced, b.Cell("item-2").Kind())
	assert.Equal(t, CellIncluded, b.Cell("item-3").Kind())
	assert.Equal(t, CellArithmeticError, b.Cell("item-4").Kind())
	assert.Equal(t, CellUnpriced, b.Cell("not-there").Kind())

	p, _ := b.Cell("item-4").Price()
	assert.Equal(t, 250.0, p)
}

func TestParseBid_ArithmeticErrorWithoutPrice(t *testing.T) {
	b, err := ParseBid(ContractorBid{
		ContractorID:     "c1",
		ArithmeticErrors: map[string]ArithmeticDiscrepancy{"item-1": {Submitted: 75, Calculated: 70}},
	})
	require.NoError(t, err)
	p, ok := b.Cell("item-1").Price()
	require.True(t, ok)
	assert.Equal(t, 75.0, p)
}

func TestParseBid_Contradictions(t *testing.T) {
	tests := []struct {
		name  string
		raw   ContractorBid
		field string
	}{
		{
			name:  "missing contractor id",
			raw:   ContractorBid{},
			field: "contractorId",
		},
		{
			name: "included with a price",
			raw: ContractorBid{
				ContractorID:  "c1",
				Prices:        map[string]*float64{"item-1": ptr(10)},
				IncludedItems: []string{"item-1"},
			},
			field: "includedItems.item-1",
		},
		{
			name: "included with an arithmetic error",
			raw: ContractorBid{
				ContractorID:     "c1",
				IncludedItems:    []string{"item-1"},
				ArithmeticErrors: map[string]ArithmeticDiscrepancy{"item-1": {Submitted: 1, Calculated: 2}},
			},
			field: "includedItems.item-1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBid(tt.raw)
			require.Error(t, err)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Errors[0].Field)
		})
	}
}

func TestParseBids_DuplicateContractor(t *testing.T) {
	_, err := ParseBids([]ContractorBid{{ContractorID: "c1"}, {ContractorID: "c1"}})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), `duplicate contractor "c1"`)
}

func TestParseBids_PrefixesIndex(t *testing.T) {
	_, err := ParseBids([]ContractorBid{
		{ContractorID: "c1"},
		{ContractorID: "c2", Prices: map[string]*float64{"x": ptr(1)}, IncludedItems: []string{"x"}},
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "bids[1].includedItems.x", ve.Errors[0].Field)
}

func TestBid_Raw(t *testing.T) {
	ids := FlattenItemIDs(twoDivisionBOQ())
	raw := mixedBids()[1].Raw(ids)

	assert.Equal(t, "c-b", raw.ContractorID)
	assert.Nil(t, raw.Prices["item-2"])
	assert.Equal(t, 9000.0, *raw.Prices["item-4"])
	assert.Equal(t, ArithmeticDiscrepancy{Submitted: 9000, Calculated: 3200}, raw.ArithmeticErrors["item-4"])
	assert.Equal(t, 10700.0, raw.TotalAmount)

	back, err := ParseBid(raw)
	require.NoError(t, err)
	for _, id := range ids {
		assert.Equal(t, mixedBids()[1].Cell(id), back.Cell(id), id)
	}
}
