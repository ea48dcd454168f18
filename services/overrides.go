package services

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// OverrideKey addresses one cell of the comparison grid.
type OverrideKey struct {
	ContractorID string
	ItemID       string
}

// String renders the key as "<contractorId>-<itemId>".
func (k OverrideKey) String() string {
	return k.ContractorID + "-" + k.ItemID
}

// Overrides are evaluator-entered prices. They win over every computed value.
type Overrides map[OverrideKey]float64

// Set stores value for the contractor/item cell.
func (o Overrides) Set(contractorID, itemID string, value float64) {
	o[OverrideKey{ContractorID: contractorID, ItemID: itemID}] = value
}

// Delete removes the override for the cell, if any.
func (o Overrides) Delete(contractorID, itemID string) {
	delete(o, OverrideKey{ContractorID: contractorID, ItemID: itemID})
}

// Lookup returns the override for the cell. A nil Overrides is empty.
func (o Overrides) Lookup(contractorID, itemID string) (float64, bool) {
	v, ok := o[OverrideKey{ContractorID: contractorID, ItemID: itemID}]
	return v, ok
}

// OverrideEntry is the persisted form of one override.
type OverrideEntry struct {
	ContractorID string  `json:"contractor_id" validate:"required"`
	ItemID       string  `json:"item_id" validate:"required"`
	Value        float64 `json:"value"`
}

// Entries lists overrides ordered by contractor then item.
func (o Overrides) Entries() []OverrideEntry {
	out := make([]OverrideEntry, 0, len(o))
	for k, v := range o {
		out = append(out, OverrideEntry{ContractorID: k.ContractorID, ItemID: k.ItemID, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ContractorID != out[j].ContractorID {
			return out[i].ContractorID < out[j].ContractorID
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out
}

// OverridesFromEntries rebuilds the map from its persisted form.
func OverridesFromEntries(entries []OverrideEntry) Overrides {
	o := make(Overrides, len(entries))
	for _, e := range entries {
		o.Set(e.ContractorID, e.ItemID, e.Value)
	}
	return o
}

// ParseOverrides decodes the "<contractorId>-<itemId>" keyed form. Ids may
// themselves contain hyphens, so keys are resolved against the known
// contractor and item ids; the longest matching contractor id wins.
// Values may be JSON numbers or numeric strings.
func ParseOverrides(raw map[string]any, contractorIDs, itemIDs []string) (Overrides, error) {
	items := make(map[string]bool, len(itemIDs))
	for _, id := range itemIDs {
		items[id] = true
	}
	contractors := append([]string(nil), contractorIDs...)
	sort.Slice(contractors, func(i, j int) bool { return len(contractors[i]) > len(contractors[j]) })

	out := make(Overrides, len(raw))
	verr := &ValidationError{}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value, err := OverrideValue(raw[key])
		if err != nil {
			verr.add("overrides."+key, "%v", err)
			continue
		}

		var matched bool
		for _, cid := range contractors {
			itemID, ok := strings.CutPrefix(key, cid+"-")
			if ok && items[itemID] {
				out.Set(cid, itemID, value)
				matched = true
				break
			}
		}
		if !matched {
			verr.add("overrides."+key, "does not match a known contractor and line item")
		}
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return out, nil
}

// OverrideValue accepts a JSON number or a numeric string.
func OverrideValue(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("value %q is not a number", n)
		}
		return f, nil
	}
	return 0, fmt.Errorf("value of type %T is not a number", v)
}
