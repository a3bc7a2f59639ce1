package filterexpr

import (
	"errors"
	"fmt"
	"strings"
)

// OrderSchema whitelists order keys (mapped to column expressions) and names
// the default and tie-break keys.
type OrderSchema struct {
	Fields       map[string]string
	Default      string
	DefaultDesc  bool
	Tiebreak     string
	TiebreakDesc bool
}

// Order is a resolved two-key ordering, keys already mapped to columns.
type Order struct {
	Column    string
	Desc      bool
	TieColumn string
	TieDesc   bool
}

// ParseOrderBy resolves an order_by string such as "answer_word desc, id".
// At most two keys are allowed; the tie-break key fills in the second slot.
func ParseOrderBy(raw string, schema OrderSchema) (Order, error) {
	defCol, ok := schema.Fields[schema.Default]
	if !ok {
		return Order{}, fmt.Errorf("default order key %q missing from schema", schema.Default)
	}
	tieCol, ok := schema.Fields[schema.Tiebreak]
	if !ok {
		return Order{}, fmt.Errorf("tie-break order key %q missing from schema", schema.Tiebreak)
	}

	type key struct {
		col  string
		desc bool
	}
	var keys []key
	seen := map[string]bool{}
	for _, seg := range strings.Split(raw, ",") {
		parts := strings.Fields(seg)
		if len(parts) == 0 {
			continue
		}
		col, ok := schema.Fields[parts[0]]
		if !ok {
			return Order{}, fmt.Errorf("field %q cannot be used for ordering", parts[0])
		}
		if seen[parts[0]] {
			return Order{}, fmt.Errorf("duplicate order key %q", parts[0])
		}
		seen[parts[0]] = true

		desc := false
		switch len(parts) {
		case 1:
		case 2:
			switch strings.ToLower(parts[1]) {
			case "asc":
			case "desc":
				desc = true
			default:
				return Order{}, fmt.Errorf("invalid direction %q for field %q", parts[1], parts[0])
			}
		default:
			return Order{}, fmt.Errorf("invalid order segment %q", strings.TrimSpace(seg))
		}
		keys = append(keys, key{col: col, desc: desc})
	}
	if len(keys) > 2 {
		return Order{}, errors.New("order_by supports at most two keys")
	}

	ord := Order{Column: defCol, Desc: schema.DefaultDesc, TieColumn: tieCol, TieDesc: schema.TiebreakDesc}
	if len(keys) > 0 {
		ord.Column, ord.Desc = keys[0].col, keys[0].desc
	}
	if len(keys) > 1 {
		ord.TieColumn, ord.TieDesc = keys[1].col, keys[1].desc
	}
	if ord.TieColumn == ord.Column {
		ord.TieColumn = ""
	}
	return ord, nil
}
