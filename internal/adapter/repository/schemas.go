package repository

import (
	"github.com/samber/lo"

	"github.com/eslsoft/taboo/pkg/filterexpr"
)

var listCardsSchema = filterexpr.ResourceSchema{
	Filter: map[string]filterexpr.FilterField{
		"category": {
			Kind: filterexpr.KindString,
			Ops: map[filterexpr.Op]string{
				filterexpr.OpEQ: "Category",
				filterexpr.OpIN: "Categories",
			},
		},
		"difficulty": {
			Kind: filterexpr.KindString,
			Ops: map[filterexpr.Op]string{
				filterexpr.OpEQ: "Difficulty",
				filterexpr.OpIN: "Difficulties",
			},
		},
		"language": {
			Kind: filterexpr.KindString,
			Ops:  map[filterexpr.Op]string{filterexpr.OpEQ: "Language"},
		},
		"answer_word": {
			Kind: filterexpr.KindString,
			Ops:  map[filterexpr.Op]string{filterexpr.OpSW: "AnswerPrefix"},
		},
	},
	Order: filterexpr.OrderSchema{
		Default:  "id",
		Tiebreak: "id",
		Fields: map[string]string{
			"id":          "id",
			"answer_word": "answer_word",
			"created_at":  "created_at",
			"category":    "category",
		},
	},
}

type listCardsParams struct {
	Category     *string
	Categories   []string
	Difficulty   *string
	Difficulties []string
	Language     *string
	AnswerPrefix *string
}

var listSessionsSchema = filterexpr.ResourceSchema{
	Filter: map[string]filterexpr.FilterField{
		"status": {
			Kind: filterexpr.KindString,
			Ops: map[filterexpr.Op]string{
				filterexpr.OpEQ: "Status",
				filterexpr.OpIN: "Statuses",
			},
		},
		"card_id": {
			Kind: filterexpr.KindNumber,
			Ops:  map[filterexpr.Op]string{filterexpr.OpEQ: "CardID"},
		},
		"target_language": {
			Kind: filterexpr.KindString,
			Ops:  map[filterexpr.Op]string{filterexpr.OpEQ: "TargetLanguage"},
		},
	},
	Order: filterexpr.OrderSchema{
		Default:     "created_at",
		DefaultDesc: true,
		Tiebreak:    "id",
		Fields: map[string]string{
			"created_at": "created_at",
			"updated_at": "updated_at",
			"id":         "id",
		},
	},
}

type listSessionsParams struct {
	Status         *string
	Statuses       []string
	CardID         *int64
	TargetLanguage *string
}

// oneOf combines the == and in forms of a filter field. Both forms are ANDed,
// so the result is their intersection; ok is false when nothing can match.
// A nil slice with ok means the field is unfiltered.
func oneOf(eq *string, in []string, norm func([]string) []string) ([]string, bool) {
	values := norm(in)
	if eq == nil {
		return values, true
	}
	want := norm([]string{*eq})
	if len(want) == 0 {
		return nil, false
	}
	if in != nil && !lo.Contains(values, want[0]) {
		return nil, false
	}
	return want, true
}

func (p listSessionsParams) statuses() ([]string, bool) {
	return oneOf(p.Status, p.Statuses, lowerSet)
}

func (p listCardsParams) categories() ([]string, bool) {
	return oneOf(p.Category, p.Categories, lowerSet)
}

func (p listCardsParams) difficulties() ([]string, bool) {
	return oneOf(p.Difficulty, p.Difficulties, lowerSet)
}
