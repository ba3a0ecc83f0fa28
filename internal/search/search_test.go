package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerms(t *testing.T) {
	tests := []struct {
		name  string
		texts []string
		want  []string
	}{
		{
			name:  "splits on punctuation and folds case",
			texts: []string{"Coffee, Croissant & TEA"},
			want:  []string{"coffee", "croissant", "tea"},
		},
		{
			name:  "strips accents",
			texts: []string{"Café crème"},
			want:  []string{"cafe", "creme"},
		},
		{
			name:  "drops stop words",
			texts: []string{"Dinner at the station"},
			want:  []string{"dinner", "station"},
		},
		{
			name:  "deduplicates across texts",
			texts: []string{"Monthly rent", "rent for March"},
			want:  []string{"monthly", "rent", "march"},
		},
		{
			name:  "keeps digits",
			texts: []string{"Invoice 2024-03"},
			want:  []string{"invoice", "2024", "03"},
		},
		{
			name:  "empty input",
			texts: []string{"", "   "},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Terms(tt.texts...))
		})
	}
}

func TestTermsTruncatesLongTokens(t *testing.T) {
	long := strings.Repeat("é", 40) // 80 bytes before accent stripping
	terms := Terms(strings.Repeat("x", 100), long)

	assert.Len(t, terms, 2)
	assert.Len(t, terms[0], MaxTermLength)
	assert.Equal(t, strings.Repeat("e", 40), terms[1])
}

func TestTermsTruncatesOnRuneBoundary(t *testing.T) {
	token := strings.Repeat("ж", 40) // two bytes per rune
	terms := Terms(token)

	assert.Len(t, terms, 1)
	assert.LessOrEqual(t, len(terms[0]), MaxTermLength)
	assert.True(t, strings.HasPrefix(token, terms[0]))
}
