package crudquery_test

import (
	"encoding/json"
	"testing"

	"github.com/autom8ter/crudquery"
	"github.com/autom8ter/crudquery/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		o := crudquery.DefaultOptions()
		assert.Equal(t, "||", o.Delim)
		assert.Equal(t, ",", o.DelimStr)
		assert.Equal(t, crudquery.Names{"fields", "select"}, o.Names(crudquery.ParamFields))
		assert.Equal(t, crudquery.Names{"limit", "per_page"}, o.Names(crudquery.ParamLimit))
		assert.Equal(t, "s", o.Names(crudquery.ParamSearch).Primary())
		assert.Equal(t, "include_deleted", o.Names(crudquery.ParamIncludeDeleted).Primary())
		for _, p := range crudquery.Params() {
			assert.NotEmpty(t, o.Names(p), p)
		}
	})
	t.Run("merge", func(t *testing.T) {
		o := crudquery.DefaultOptions().Merge(crudquery.Options{
			DelimStr: ";",
			ParamNamesMap: crudquery.ParamNames{
				crudquery.ParamSearch: {"search"},
				crudquery.ParamSort:   {},
			},
		})
		assert.Equal(t, "||", o.Delim)
		assert.Equal(t, ";", o.DelimStr)
		assert.Equal(t, crudquery.Names{"search"}, o.Names(crudquery.ParamSearch))
		assert.Equal(t, crudquery.Names{"sort"}, o.Names(crudquery.ParamSort))
		assert.Equal(t, crudquery.Names{"fields", "select"}, o.Names(crudquery.ParamFields))
		assert.Equal(t, crudquery.Names{"s"}, crudquery.DefaultOptions().Names(crudquery.ParamSearch))
	})
	t.Run("set options", func(t *testing.T) {
		defer crudquery.ResetOptions()
		crudquery.SetOptions(crudquery.Options{Delim: "::"})
		crudquery.SetOptions(crudquery.Options{ParamNamesMap: crudquery.ParamNames{crudquery.ParamPage: {"p"}}})
		o := crudquery.GetOptions()
		assert.Equal(t, "::", o.Delim)
		assert.Equal(t, crudquery.Names{"p"}, o.Names(crudquery.ParamPage))
		assert.Equal(t, crudquery.Names{"limit", "per_page"}, o.Names(crudquery.ParamLimit))

		o.ParamNamesMap[crudquery.ParamPage][0] = "changed"
		assert.Equal(t, crudquery.Names{"p"}, crudquery.GetOptions().Names(crudquery.ParamPage))

		crudquery.ResetOptions()
		assert.Equal(t, crudquery.DefaultOptions(), crudquery.GetOptions())
	})
	t.Run("builder and parser options", func(t *testing.T) {
		defer crudquery.ResetOptions()
		b := crudquery.NewRequestQueryBuilder(crudquery.WithOptions(crudquery.Options{Delim: "~"}))
		crudquery.SetOptions(crudquery.Options{Delim: "::"})
		assert.Equal(t, "~", b.Options().Delim)
		assert.Equal(t, "::", crudquery.NewRequestQueryParser().Options().Delim)
	})
	t.Run("unmarshal", func(t *testing.T) {
		bits, err := util.YAMLToJSON([]byte(`
delim: "::"
paramNamesMap:
  search: search
  limit: [limit, per_page, take]
`))
		require.NoError(t, err)
		var o crudquery.Options
		require.NoError(t, json.Unmarshal(bits, &o))
		assert.Equal(t, "::", o.Delim)
		assert.Equal(t, crudquery.Names{"search"}, o.Names(crudquery.ParamSearch))
		assert.Equal(t, crudquery.Names{"limit", "per_page", "take"}, o.Names(crudquery.ParamLimit))
	})
	t.Run("param kinds", func(t *testing.T) {
		assert.True(t, crudquery.ParamFilter.IsList())
		assert.False(t, crudquery.ParamFields.IsList())
		assert.True(t, crudquery.ParamCache.IsNumeric())
		assert.False(t, crudquery.ParamSearch.IsNumeric())
	})
}
