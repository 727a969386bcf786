package testutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/autom8ter/crudquery"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/samber/lo"
)

// scalarOperators compare against a single value
var scalarOperators = []crudquery.Operator{
	crudquery.OpEq, crudquery.OpNe, crudquery.OpGt, crudquery.OpLt, crudquery.OpGte, crudquery.OpLte,
	crudquery.OpStarts, crudquery.OpEnds, crudquery.OpCont, crudquery.OpExcl,
	crudquery.OpEqL, crudquery.OpNeL, crudquery.OpStartsL, crudquery.OpEndsL, crudquery.OpContL, crudquery.OpExclL,
}

var listOperators = []crudquery.Operator{
	crudquery.OpIn, crudquery.OpNotIn, crudquery.OpInL, crudquery.OpNotInL,
}

// NewField returns a random field name. One in three fields addresses a joined relation.
func NewField() string {
	field := strings.ToLower(gofakeit.LetterN(8))
	if gofakeit.Number(0, 2) == 0 {
		return fmt.Sprintf("%s.%s", strings.ToLower(gofakeit.LetterN(6)), field)
	}
	return field
}

// reservedSeparators are characters with a meaning in the query grammar or in a url query string
var reservedSeparators = []string{"||", ",", "&", "+", ";", " ", "=", "?", "%"}

// NewValue returns a random scalar value that decodes back to itself
func NewValue() any {
	switch gofakeit.Number(0, 3) {
	case 0:
		return gofakeit.IntRange(-1000, 1000)
	case 1:
		return gofakeit.DateRange(time.Now().Add(-7200*time.Hour), time.Now()).UTC().Truncate(time.Second)
	case 2:
		return NewReservedValue()
	default:
		return strings.ToLower(gofakeit.LetterN(12))
	}
}

// NewReservedValue returns a random string value containing a reserved separator
func NewReservedValue() string {
	return strings.Join([]string{
		strings.ToLower(gofakeit.LetterN(4)),
		gofakeit.RandomString(reservedSeparators),
		strings.ToLower(gofakeit.LetterN(4)),
	}, "")
}

// NewCondition returns a random valid condition whose value survives an encode/decode round trip
func NewCondition() crudquery.Condition {
	c := crudquery.Condition{Field: NewField()}
	switch gofakeit.Number(0, 3) {
	case 0:
		c.Operator = crudquery.Operator(gofakeit.RandomString(lo.Map(listOperators, func(o crudquery.Operator, _ int) string {
			return string(o)
		})))
		var items []any
		for i := 0; i < gofakeit.Number(1, 4); i++ {
			items = append(items, gofakeit.IntRange(0, 1000))
		}
		c.Value = items
	case 1:
		c.Operator = crudquery.OpBetween
		low := gofakeit.IntRange(0, 1000)
		c.Value = []any{low, low + gofakeit.IntRange(1, 1000)}
	case 2:
		c.Operator = crudquery.Operator(gofakeit.RandomString([]string{string(crudquery.OpIsNull), string(crudquery.OpNotNull)}))
	default:
		c.Operator = crudquery.Operator(gofakeit.RandomString(lo.Map(scalarOperators, func(o crudquery.Operator, _ int) string {
			return string(o)
		})))
		c.Value = NewValue()
	}
	return c
}

// NewJoin returns a random valid join
func NewJoin() crudquery.JoinSpec {
	j := crudquery.JoinSpec{Field: strings.ToLower(gofakeit.LetterN(6))}
	if gofakeit.Bool() {
		for i := 0; i < gofakeit.Number(1, 3); i++ {
			j.Select = append(j.Select, strings.ToLower(gofakeit.LetterN(5)))
		}
	}
	return j
}

// NewSort returns a random valid sort
func NewSort() crudquery.SortSpec {
	return crudquery.SortSpec{
		Field: NewField(),
		Order: crudquery.SortOrder(gofakeit.RandomString([]string{string(crudquery.ASC), string(crudquery.DESC)})),
	}
}

// NewCreateParams returns a random valid param bag without a search expression
func NewCreateParams() *crudquery.CreateParams {
	params := &crudquery.CreateParams{
		Limit:  lo.ToPtr(gofakeit.IntRange(1, 100)),
		Offset: lo.ToPtr(gofakeit.IntRange(0, 100)),
		Page:   lo.ToPtr(gofakeit.IntRange(1, 10)),
	}
	for i := 0; i < gofakeit.Number(1, 3); i++ {
		params.Fields = append(params.Fields, NewField())
		params.Filter = append(params.Filter, NewCondition())
		params.Or = append(params.Or, NewCondition())
		params.Join = append(params.Join, NewJoin())
		params.Sort = append(params.Sort, NewSort())
	}
	return params
}
