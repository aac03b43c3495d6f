package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderByClause(t *testing.T) {
	allowed := map[string]string{"deadline": "t.deadline", "title": "t.title"}
	fallback := "t.id DESC"

	tests := []struct {
		name      string
		orderings []DBOrdering
		want      string
	}{
		{name: "nil", want: fallback},
		{name: "unknown only", orderings: []DBOrdering{{Field: "password"}}, want: fallback},
		{name: "single asc", orderings: []DBOrdering{{Field: "title", Ascending: true}}, want: "t.title ASC"},
		{
			name:      "mixed",
			orderings: []DBOrdering{{Field: "deadline"}, {Field: "1; DROP TABLE users"}, {Field: "title", Ascending: true}},
			want:      "t.deadline DESC, t.title ASC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OrderByClause(tt.orderings, allowed, fallback))
		})
	}
}
