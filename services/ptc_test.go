package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePTCs(t *testing.T) {
	n := NewNormalizer(twoDivisionBOQ())
	got := GeneratePTCs(n, mixedBids(), DefaultDeviationThreshold)
	require.Len(t, got, 3)

	byContractor := map[string]ContractorPTCs{}
	for _, cp := range got {
		byContractor[cp.ContractorID] = cp
	}

	a := byContractor["c-a"]
	require.Len(t, a.Items, 1)
	assert.Equal(t, PTCExclusions, a.Items[0].Category)
	assert.Equal(t, "item-3", a.Items[0].ItemID)
	assert.Equal(t, PTCPending, a.Items[0].Status)
	assert.Contains(t, a.Items[0].Query, "02.01.001")
	assert.NotEmpty(t, a.Items[0].ID)

	b := byContractor["c-b"]
	var cats []PTCCategory
	for _, it := range b.Items {
		cats = append(cats, it.Category)
	}
	// item-2 unpriced, item-3 500 vs median 600 is within 30%, item-4 arithmetic
	assert.Equal(t, []PTCCategory{PTCPricingAnomalies, PTCArithmeticChecks}, cats)

	assert.Empty(t, byContractor["c-c"].Items)
}

func TestGeneratePTCs_Outlier(t *testing.T) {
	bids := []Bid{
		NewBid("c1", "One", map[string]Cell{"item-1": Priced(100)}),
		NewBid("c2", "Two", map[string]Cell{"item-1": Priced(105)}),
		NewBid("c3", "Three", map[string]Cell{"item-1": Priced(400)}),
	}
	got := GeneratePTCs(NewNormalizer(singleItemBOQ()), bids, DefaultDeviationThreshold)
	assert.Empty(t, got[0].Items)
	assert.Empty(t, got[1].Items)
	require.Len(t, got[2].Items, 1)
	assert.Equal(t, PTCPricingAnomalies, got[2].Items[0].Category)

	got = GeneratePTCs(NewNormalizer(singleItemBOQ()), bids, 0)
	assert.Empty(t, got[2].Items, "zero threshold disables outliers")
}

func TestPTC_ToggleAndRespond(t *testing.T) {
	all := GeneratePTCs(NewNormalizer(twoDivisionBOQ()), mixedBids(), 0)
	id := all[0].Items[0].ID

	it, ok := ToggleStatus(all, id)
	require.True(t, ok)
	assert.Equal(t, PTCClosed, it.Status)
	it, _ = ToggleStatus(all, id)
	assert.Equal(t, PTCPending, it.Status)

	it, ok = SetResponse(all, id, "Included in item 02.01.002")
	require.True(t, ok)
	assert.Equal(t, "Included in item 02.01.002", it.Response)
	assert.Equal(t, it, all[0].Items[0])

	_, ok = ToggleStatus(all, "nope")
	assert.False(t, ok)
}

func TestAddDeviation(t *testing.T) {
	var all []ContractorPTCs
	all, it := AddDeviation(all, Contractor{ID: "c1", Name: "One"}, "item-1", "Alternative waterproofing proposed")
	require.Len(t, all, 1)
	assert.Equal(t, PTCDeviations, it.Category)

	all, _ = AddDeviation(all, Contractor{ID: "c1", Name: "One"}, "", "Programme deviation")
	require.Len(t, all, 1)
	assert.Len(t, all[0].Items, 2)
	assert.NoError(t, ValidatePTC(it))
}

func TestSummarizePTCs(t *testing.T) {
	cp := ContractorPTCs{Items: []PTCItem{
		{Category: PTCExclusions, Status: PTCPending},
		{Category: PTCExclusions, Status: PTCClosed},
		{Category: PTCArithmeticChecks, Status: PTCPending},
	}}
	got := SummarizePTCs(cp)
	require.Len(t, got, len(PTCCategories))
	assert.Equal(t, PTCCount{Category: PTCExclusions, Pending: 1, Closed: 1}, got[0])
	assert.Equal(t, PTCCount{Category: PTCDeviations}, got[1])
	assert.Equal(t, PTCCount{Category: PTCArithmeticChecks, Pending: 1}, got[3])
}

func TestMergePTCs(t *testing.T) {
	n := NewNormalizer(twoDivisionBOQ())
	first := GeneratePTCs(n, mixedBids(), DefaultDeviationThreshold)

	var closedID string
	for ci := range first {
		if first[ci].ContractorID == "c-b" {
			closedID = first[ci].Items[0].ID
		}
	}
	_, ok := ToggleStatus(first, closedID)
	require.True(t, ok)
	_, ok = SetResponse(first, closedID, "Rate to follow")
	require.True(t, ok)
	first, dev := AddDeviation(first, Contractor{ID: "c-c", Name: "Gamma Constructions"}, "", "Confirm programme duration")

	merged := MergePTCs(first, GeneratePTCs(n, mixedBids(), DefaultDeviationThreshold))
	require.Len(t, merged, 3)

	ci, ii, ok := FindPTC(merged, closedID)
	require.True(t, ok)
	assert.Equal(t, PTCClosed, merged[ci].Items[ii].Status)
	assert.Equal(t, "Rate to follow", merged[ci].Items[ii].Response)

	ci, ii, ok = FindPTC(merged, dev.ID)
	require.True(t, ok)
	assert.Equal(t, "c-c", merged[ci].ContractorID)
	assert.Equal(t, PTCDeviations, merged[ci].Items[ii].Category)
}

func TestMergePTCs_KeepsDeviationsOfDroppedContractor(t *testing.T) {
	existing, _ := AddDeviation(nil, Contractor{ID: "c-x", Name: "Withdrawn"}, "", "Confirm withdrawal")
	merged := MergePTCs(existing, nil)
	require.Len(t, merged, 1)
	assert.Equal(t, "c-x", merged[0].ContractorID)
	assert.Len(t, merged[0].Items, 1)
}
