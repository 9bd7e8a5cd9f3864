package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCascadeFirstMatchWins(t *testing.T) {
	c := NewCascade().
		Add(`strict-(\d+)`, nil).
		Add(`loose-(\w+)`, nil)

	got, ok := c.First("loose-abc strict-42")
	assert.True(t, ok)
	assert.Equal(t, "42", got)

	got, ok = c.First("loose-abc only")
	assert.True(t, ok)
	assert.Equal(t, "abc", got)

	_, ok = c.First("nothing here")
	assert.False(t, ok)
}

func TestCascadeNormalizer(t *testing.T) {
	c := NewCascade().Add(`ref\s+(\w+)`, strings.ToUpper)

	got, ok := c.First("ref fc12")
	assert.True(t, ok)
	assert.Equal(t, "FC12", got)
}

func TestCascadePrependLearned(t *testing.T) {
	c := NewCascade().
		Add(`builtin-(\d+)`, nil).
		Prepend([]string{`learned-(\d+)`})

	got, ok := c.First("builtin-1 learned-2")
	assert.True(t, ok)
	assert.Equal(t, "2", got, "learned patterns run before built-ins")
}

func TestCascadePrependSkipsInvalid(t *testing.T) {
	c := NewCascade().
		Add(`builtin-(\d+)`, nil).
		Prepend([]string{`([unclosed`, `learned-(\d+)`})

	got, ok := c.First("builtin-7")
	assert.True(t, ok)
	assert.Equal(t, "7", got)
}

func TestCascadeFirstDate(t *testing.T) {
	c := NewCascade().Add(`date\s*:\s*(\S+)`, nil)

	d, ok := c.FirstDate("date : 15/03/2024")
	assert.True(t, ok)
	assert.Equal(t, 2024, d.Year())

	_, ok = c.FirstDate("date : demain")
	assert.False(t, ok)
}

func TestNumberFromFilename(t *testing.T) {
	tests := []struct {
		input  string
		expect string
	}{
		{input: "facture_8842.txt", expect: "8842"},
		{input: "/tmp/docs/FC12345.txt", expect: "12345"},
		{input: "scan.txt", expect: "scan"},
		{input: "releve-2024-06.txt", expect: "2024-06"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expect, numberFromFilename(tt.input), tt.input)
	}
}
