package benchmarks

import (
	"testing"

	"github.com/autom8ter/crudquery"
	"github.com/autom8ter/crudquery/testutil"
	"github.com/stretchr/testify/assert"
)

func BenchmarkBuild(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, err := crudquery.NewRequestQueryBuilder().
			Select("name", "email").
			SetFilter([]any{"age", "gte", 18}).
			SetOr([]any{"vip", "eq", true}).
			SetJoin([]any{"company", []string{"id", "name"}}).
			SortBy([]any{"createdAt", "DESC"}).
			SetLimit(10).
			Query(true)
		assert.NoError(b, err)
	}
}

func BenchmarkCreate(b *testing.B) {
	b.ReportAllocs()
	params := testutil.NewCreateParams()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := crudquery.Create(params).Query(true)
		assert.NoError(b, err)
	}
}

func BenchmarkParse(b *testing.B) {
	b.ReportAllocs()
	query, err := crudquery.Create(testutil.NewCreateParams()).Query(true)
	assert.NoError(b, err)
	parser := crudquery.NewRequestQueryParser()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := parser.ParseString(query)
		assert.NoError(b, err)
	}
}
