package crudquery_test

import (
	"context"
	"testing"

	"github.com/autom8ter/crudquery"
	"github.com/autom8ter/crudquery/errors"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAPI(t *testing.T) {
	t.Run("parameters", func(t *testing.T) {
		params := crudquery.OpenAPIParameters(crudquery.DefaultOptions())
		assert.Len(t, params, len(crudquery.Params()))
		fields := params.GetByInAndName(openapi3.ParameterInQuery, "fields")
		require.NotNil(t, fields)
		assert.Contains(t, fields.Description, "select")
		assert.Equal(t, "array", fields.Schema.Value.Type)
		filter := params.GetByInAndName(openapi3.ParameterInQuery, "filter")
		require.NotNil(t, filter)
		assert.True(t, *filter.Explode)
		limit := params.GetByInAndName(openapi3.ParameterInQuery, "limit")
		require.NotNil(t, limit)
		assert.Equal(t, 1.0, *limit.Schema.Value.Min)
		assert.NotNil(t, params.GetByInAndName(openapi3.ParameterInQuery, "s"))
		assert.NotNil(t, params.GetByInAndName(openapi3.ParameterInQuery, "include_deleted"))
	})
	t.Run("custom names", func(t *testing.T) {
		params := crudquery.OpenAPIParameters(crudquery.DefaultOptions().Merge(crudquery.Options{
			ParamNamesMap: crudquery.ParamNames{crudquery.ParamSearch: {"search"}},
		}))
		assert.NotNil(t, params.GetByInAndName(openapi3.ParameterInQuery, "search"))
		assert.Nil(t, params.GetByInAndName(openapi3.ParameterInQuery, "s"))
	})
	t.Run("spec", func(t *testing.T) {
		bits, err := crudquery.OpenAPISpec(context.Background(), crudquery.SpecConfig{
			Title:       "CRM API",
			Version:     "1.0.0",
			Description: "an example CRM api",
			Resource:    "users",
		}, crudquery.DefaultOptions())
		require.NoError(t, err)
		doc, err := openapi3.NewLoader().LoadFromData(bits)
		require.NoError(t, err)
		assert.Equal(t, "CRM API", doc.Info.Title)
		path := doc.Paths.Find("/api/query")
		require.NotNil(t, path)
		require.NotNil(t, path.Get)
		assert.Equal(t, "query users", path.Get.Summary)
		assert.Len(t, path.Get.Parameters, len(crudquery.Params()))
	})
	t.Run("spec config", func(t *testing.T) {
		_, err := crudquery.OpenAPISpec(context.Background(), crudquery.SpecConfig{Title: "CRM API"}, crudquery.DefaultOptions())
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})
}
