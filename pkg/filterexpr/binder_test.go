package filterexpr

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type listCardsParams struct {
	Category     *string
	Categories   []string
	Difficulties []string
	AnswerPrefix *string
	Active       *bool
	MinKeyWords  *int64
}

var cardSchema = ResourceSchema{
	Filter: map[string]FilterField{
		"category":    {Kind: KindString, Ops: map[Op]string{OpEQ: "Category", OpIN: "Categories"}},
		"difficulty":  {Kind: KindString, Ops: map[Op]string{OpIN: "Difficulties"}},
		"answer_word": {Kind: KindString, Ops: map[Op]string{OpSW: "AnswerPrefix"}},
		"active":      {Kind: KindBool, Ops: map[Op]string{OpEQ: "Active"}},
		"key_words":   {Kind: KindNumber, Ops: map[Op]string{OpEQ: "MinKeyWords"}},
	},
	Order: OrderSchema{
		Fields:   map[string]string{"id": "id", "answer_word": "answer_word", "created_at": "created_at"},
		Default:  "id",
		Tiebreak: "id",
	},
}

type msg struct{ filter, orderBy string }

func (m msg) GetFilter() string  { return m.filter }
func (m msg) GetOrderBy() string { return m.orderBy }

func TestBindConjunction(t *testing.T) {
	var params listCardsParams
	filter := "category == 'animals' && difficulty in ['easy', 'medium'] && answer_word.startsWith('CA') && active == true && key_words == 3"

	if _, err := Bind(msg{filter: filter}, &params, cardSchema); err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}
	if params.Category == nil || *params.Category != "animals" {
		t.Fatalf("expected Category animals, got %v", params.Category)
	}
	if diff := cmp.Diff([]string{"easy", "medium"}, params.Difficulties); diff != "" {
		t.Fatalf("Difficulties mismatch (-want +got):\n%s", diff)
	}
	if params.AnswerPrefix == nil || *params.AnswerPrefix != "CA" {
		t.Fatalf("expected AnswerPrefix CA, got %v", params.AnswerPrefix)
	}
	if params.Active == nil || !*params.Active {
		t.Fatalf("expected Active true, got %v", params.Active)
	}
	if params.MinKeyWords == nil || *params.MinKeyWords != 3 {
		t.Fatalf("expected MinKeyWords 3, got %v", params.MinKeyWords)
	}
}

func TestBindEmptyFilterLeavesParamsUntouched(t *testing.T) {
	var params listCardsParams
	order, err := Bind(msg{}, &params, cardSchema)
	if err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}
	if params.Category != nil || params.Difficulties != nil {
		t.Fatalf("expected zero params, got %+v", params)
	}
	if order.Column != "id" || order.Desc {
		t.Fatalf("expected default order by id asc, got %+v", order)
	}
}

func TestBindRejections(t *testing.T) {
	cases := []struct {
		name    string
		filter  string
		wantErr string
	}{
		{name: "or", filter: "category == 'a' || category == 'b'", wantErr: "only && is allowed"},
		{name: "unknown field", filter: "color == 'red'", wantErr: `field "color" is not allowed`},
		{name: "operator not allowed", filter: "difficulty == 'easy'", wantErr: `operator "==" is not allowed`},
		{name: "wrong literal kind", filter: "category == 3", wantErr: "expected string literal"},
		{name: "empty list", filter: "difficulty in []", wantErr: "must not be empty"},
		{name: "syntax", filter: "category ==", wantErr: "invalid filter"},
		{name: "repeated operator", filter: "category == 'a' && category == 'b'", wantErr: `operator "==" used more than once`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var params listCardsParams
			_, err := Bind(msg{filter: tc.filter}, &params, cardSchema)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestBindRequiresStructPointer(t *testing.T) {
	var params listCardsParams
	if _, err := Bind(msg{filter: "category == 'a'"}, params, cardSchema); err == nil {
		t.Fatal("expected error for non-pointer binding")
	}
}

func TestParseOrderBy(t *testing.T) {
	cases := []struct {
		raw  string
		want Order
	}{
		{raw: "", want: Order{Column: "id"}},
		{raw: "answer_word desc", want: Order{Column: "answer_word", Desc: true, TieColumn: "id"}},
		{raw: "created_at desc, answer_word", want: Order{Column: "created_at", Desc: true, TieColumn: "answer_word"}},
	}
	for _, tc := range cases {
		got, err := ParseOrderBy(tc.raw, cardSchema.Order)
		if err != nil {
			t.Fatalf("ParseOrderBy(%q) returned error: %v", tc.raw, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("ParseOrderBy(%q) mismatch (-want +got):\n%s", tc.raw, diff)
		}
	}

	for _, bad := range []string{"color", "id sideways", "id, id", "id, answer_word, created_at"} {
		if _, err := ParseOrderBy(bad, cardSchema.Order); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
