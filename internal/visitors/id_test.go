package visitors_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"sitepulse/internal/visitors"
)

func TestNewID(t *testing.T) {
	t.Run("uses the visitor prefix", func(t *testing.T) {
		id := visitors.NewID()

		assert.True(t, strings.HasPrefix(id, visitors.Prefix))
		assert.Len(t, id, len(visitors.Prefix)+21)
	})

	t.Run("generates distinct ids", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			id := visitors.NewID()
			assert.False(t, seen[id], "duplicate visitor id %s", id)
			seen[id] = true
		}
	})
}

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{name: "client generated id", input: "visitor_k3j2h1", expected: "visitor_k3j2h1", ok: true},
		{name: "surrounding whitespace trimmed", input: "  visitor_abc \n", expected: "visitor_abc", ok: true},
		{name: "empty", input: "", expected: "", ok: false},
		{name: "blank", input: "   ", expected: "", ok: false},
		{name: "inner whitespace", input: "visitor abc", expected: "visitor abc", ok: false},
		{name: "too long", input: strings.Repeat("a", visitors.MaxIDLength+1), expected: strings.Repeat("a", visitors.MaxIDLength+1), ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := visitors.NormalizeID(tt.input)
			assert.Equal(t, tt.expected, id)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
