package crudquery_test

import (
	"testing"

	"github.com/autom8ter/crudquery"
	"github.com/stretchr/testify/assert"
)

func TestExpression(t *testing.T) {
	age := crudquery.Condition{Field: "age", Operator: crudquery.OpGte, Value: 18}
	name := crudquery.Condition{Field: "name", Operator: "$cont", Value: "jo"}
	deleted := crudquery.Condition{Field: "deletedAt", Operator: crudquery.OpIsNull}

	t.Run("leaf", func(t *testing.T) {
		assert.Equal(t, crudquery.SCondition{"age": map[string]any{"$gte": 18}}, age.Expression())
		assert.Equal(t, crudquery.SCondition{"name": map[string]any{"$cont": "jo"}}, name.Expression())
		assert.Equal(t, crudquery.SCondition{"deletedAt": map[string]any{"$isnull": true}}, deleted.Expression())
	})
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, crudquery.SCondition{}, (&crudquery.ParsedRequest{}).Expression())
	})
	t.Run("search wins", func(t *testing.T) {
		search := crudquery.SCondition{"id": 1}
		req := &crudquery.ParsedRequest{Search: search, Filter: []crudquery.Condition{age}}
		assert.Equal(t, search, req.Expression())
	})
	t.Run("filter", func(t *testing.T) {
		req := &crudquery.ParsedRequest{Filter: []crudquery.Condition{age, name}}
		assert.Equal(t, crudquery.SCondition{"$and": []any{age.Expression(), name.Expression()}}, req.Expression())
	})
	t.Run("or", func(t *testing.T) {
		req := &crudquery.ParsedRequest{Or: []crudquery.Condition{age, name}}
		assert.Equal(t, crudquery.SCondition{"$or": []any{age.Expression(), name.Expression()}}, req.Expression())
	})
	t.Run("single filter and or", func(t *testing.T) {
		req := &crudquery.ParsedRequest{Filter: []crudquery.Condition{age}, Or: []crudquery.Condition{name}}
		assert.Equal(t, crudquery.SCondition{"$or": []any{age.Expression(), name.Expression()}}, req.Expression())
	})
	t.Run("filter and or", func(t *testing.T) {
		req := &crudquery.ParsedRequest{Filter: []crudquery.Condition{age, deleted}, Or: []crudquery.Condition{name}}
		assert.Equal(t, crudquery.SCondition{"$or": []any{
			crudquery.SCondition{"$and": []any{age.Expression(), deleted.Expression()}},
			crudquery.SCondition{"$and": []any{name.Expression()}},
		}}, req.Expression())
	})
}
