package services

import "bytes"

// bytesReader wraps a byte slice in a bytes.Reader for use with excelize.OpenReader.
func bytesReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}

func ptr(v float64) *float64 { return &v }

// singleItemBOQ is one division, one section, one 10 m2 item.
func singleItemBOQ() BOQData {
	return BOQData{{
		ID: "div-1", Code: "01", Name: "Substructure",
		Sections: []BOQSection{{
			ID: "sec-1", Code: "01.01", Name: "Excavation",
			Items: []BOQLineItem{
				{ID: "item-1", Code: "01.01.001", Description: "Excavate to reduced level", Quantity: 10, Unit: "m2"},
			},
		}},
	}}
}

// twoDivisionBOQ has four items across two divisions.
func twoDivisionBOQ() BOQData {
	return BOQData{
		{
			ID: "div-1", Code: "01", Name: "Substructure",
			Sections: []BOQSection{{
				ID: "sec-1", Code: "01.01", Name: "Excavation",
				Items: []BOQLineItem{
					{ID: "item-1", Code: "01.01.001", Description: "Excavation", Quantity: 100, Unit: "m3"},
					{ID: "item-2", Code: "01.01.002", Description: "Disposal", Quantity: 80, Unit: "m3"},
				},
			}},
		},
		{
			ID: "div-2", Code: "02", Name: "Concrete",
			Sections: []BOQSection{{
				ID: "sec-2", Code: "02.01", Name: "In-situ concrete",
				Items: []BOQLineItem{
					{ID: "item-3", Code: "02.01.001", Description: "Blinding", Quantity: 20, Unit: "m3"},
					{ID: "item-4", Code: "02.01.002", Description: "Footings", Quantity: 40, Unit: "m3"},
				},
			}},
		},
	}
}

// mixedBids covers every cell kind over twoDivisionBOQ.
func mixedBids() []Bid {
	return []Bid{
		NewBid("c-a", "Alpha Builders", map[string]Cell{
			"item-1": Priced(1000),
			"item-2": Priced(400),
			"item-3": Included(),
			"item-4": Priced(3000),
		}),
		NewBid("c-b", "Beta Infra", map[string]Cell{
			"item-1": Priced(1200),
			"item-2": Unpriced(),
			"item-3": Priced(500),
			"item-4": ArithmeticError(9000, 9000, 3200),
		}),
		NewBid("c-c", "Gamma Constructions", map[string]Cell{
			"item-1": Priced(900),
			"item-2": Priced(600),
			"item-3": Priced(700),
			"item-4": Priced(3400),
		}),
	}
}
