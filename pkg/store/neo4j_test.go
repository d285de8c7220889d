package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLuceneQueryRewritesWeightedForm(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "original tokens boosted",
			query: "weak:A | instruments:A",
			want:  "weak^2 OR instruments^2",
		},
		{
			name:  "expansion tokens plain",
			query: "iv:A | instrumental:B | variables:B",
			want:  "iv^2 OR instrumental OR variables",
		},
		{
			name:  "lower tiers plain",
			query: "panel:A | effects:C | estimator:D",
			want:  "panel^2 OR effects OR estimator",
		},
		{
			name:  "plain text passes through",
			query: "instrumental variables",
			want:  "instrumental OR variables",
		},
		{
			name:  "empty query",
			query: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, luceneQuery(tt.query))
		})
	}
}
