package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

var validate = validator.New()

// boqSchema describes the persisted BOQ blob.
const boqSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "sections"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "code": {"type": "string"},
      "name": {"type": "string"},
      "sections": {
        "type": "array",
        "items": {
          "type": "object",
          "required": ["id", "items"],
          "properties": {
            "id": {"type": "string", "minLength": 1},
            "code": {"type": "string"},
            "name": {"type": "string"},
            "items": {
              "type": "array",
              "items": {
                "type": "object",
                "required": ["id", "quantity"],
                "properties": {
                  "id": {"type": "string", "minLength": 1},
                  "code": {"type": "string"},
                  "description": {"type": "string"},
                  "quantity": {"type": "number", "minimum": 0},
                  "unit": {"type": "string"}
                }
              }
            }
          }
        }
      }
    }
  }
}`

var boqSchemaLoader = gojsonschema.NewStringLoader(boqSchema)

func isEmptyJSON(data []byte) bool {
	t := bytes.TrimSpace(data)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// DecodeBOQ validates and decodes a persisted BOQ blob. An empty blob is
// ErrNoData; anything malformed is a *ValidationError.
func DecodeBOQ(data []byte) (BOQData, error) {
	if isEmptyJSON(data) {
		return nil, ErrNoData
	}

	result, err := gojsonschema.Validate(boqSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &ValidationError{Errors: []FieldError{{Field: "(root)", Message: err.Error()}}}
	}
	if !result.Valid() {
		verr := &ValidationError{}
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			verr.add(field, "%s", desc.Description())
		}
		return nil, verr
	}

	var boq BOQData
	if err := json.Unmarshal(data, &boq); err != nil {
		return nil, fmt.Errorf("decode boq: %w", err)
	}
	if err := ValidateBOQ(boq); err != nil {
		return nil, err
	}
	return boq, nil
}

// ValidateBOQ checks struct constraints and that every line-item id is
// unique across the whole tree.
func ValidateBOQ(boq BOQData) error {
	verr := &ValidationError{}
	for i := range boq {
		if err := validate.Struct(&boq[i]); err != nil {
			appendValidatorErrors(verr, fmt.Sprintf("boq[%d]", i), err)
		}
	}

	seen := make(map[string]string)
	for _, f := range FlattenItems(boq) {
		id := f.Item.ID
		if id == "" {
			continue
		}
		where := f.DivisionCode + "/" + f.SectionCode
		if prev, dup := seen[id]; dup {
			verr.add("items."+id, "duplicate line-item id (in %s and %s)", prev, where)
			continue
		}
		seen[id] = where
	}
	return verr.orNil()
}

// DecodeBids validates and decodes persisted bids against the BOQ item
// ids. References to unknown items are rejected.
func DecodeBids(data []byte, itemIDs []string) ([]ContractorBid, []Bid, error) {
	if isEmptyJSON(data) {
		return nil, nil, ErrNoData
	}
	var raws []ContractorBid
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, nil, &ValidationError{Errors: []FieldError{{Field: "bids", Message: err.Error()}}}
	}
	if err := ValidateBidRefs(raws, itemIDs); err != nil {
		return nil, nil, err
	}
	bids, err := ParseBids(raws)
	if err != nil {
		return nil, nil, err
	}
	return raws, bids, nil
}

// ValidateBidRefs rejects bids that reference line items outside the BOQ.
func ValidateBidRefs(raws []ContractorBid, itemIDs []string) error {
	known := make(map[string]bool, len(itemIDs))
	for _, id := range itemIDs {
		known[id] = true
	}
	verr := &ValidationError{}
	for i, raw := range raws {
		if err := validate.Struct(&raw); err != nil {
			appendValidatorErrors(verr, fmt.Sprintf("bids[%d]", i), err)
		}
		for id := range raw.Prices {
			if !known[id] {
				verr.add(fieldIndex("bids", i, "prices."+id), "unknown line item")
			}
		}
		for _, id := range raw.IncludedItems {
			if !known[id] {
				verr.add(fieldIndex("bids", i, "includedItems."+id), "unknown line item")
			}
		}
		for id := range raw.ArithmeticErrors {
			if !known[id] {
				verr.add(fieldIndex("bids", i, "arithmeticErrors."+id), "unknown line item")
			}
		}
	}
	return verr.orNil()
}

// ValidateSettings checks the algorithm name.
func ValidateSettings(s NormalizationSettings) error {
	if err := validate.Struct(&s); err != nil {
		verr := &ValidationError{}
		appendValidatorErrors(verr, "settings", err)
		return verr
	}
	return nil
}

// ValidateTechnical checks scope and breakdown ids and weight ranges.
func ValidateTechnical(te *TechnicalEvaluation) error {
	if te == nil {
		return ErrNoData
	}
	if err := validate.Struct(te); err != nil {
		verr := &ValidationError{}
		appendValidatorErrors(verr, "technical", err)
		return verr
	}
	return nil
}

// ValidatePTC checks category, status and query text.
func ValidatePTC(it PTCItem) error {
	if err := validate.Struct(&it); err != nil {
		verr := &ValidationError{}
		appendValidatorErrors(verr, "ptc", err)
		return verr
	}
	return nil
}

func appendValidatorErrors(verr *ValidationError, prefix string, err error) {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		verr.add(prefix, "%v", err)
		return
	}
	for _, fe := range ves {
		verr.add(prefix+"."+fe.Namespace(), "failed %q constraint (value %v)", fe.Tag(), fe.Value())
	}
}

func fieldIndex(base string, i int, field string) string {
	return fmt.Sprintf("%s[%d].%s", base, i, field)
}
