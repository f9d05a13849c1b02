package normalize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMonetary(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"empty", "", 0},
		{"whitespace", "   ", 0},
		{"dash sentinel", "-", 0},
		{"oku marker", "46.2億", 46.2},
		{"oku with grouping", "1,234億", 1234},
		{"oku yen suffix", "46.2億円", 46.2},
		{"bare man units", "462000", 46.2},
		{"bare with grouping", "1,234,000", 123.4},
		{"small bare", "46.2", 0.00462},
		{"fullwidth digits", "４６．２億", 46.2},
		{"garbage", "not a number", 0},
		{"garbage with marker", "abc億", 0},
		{"nan word", "NaN", 0},
		{"inf word", "Inf", 0},
		{"zero", "0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseMonetary(tt.in), 1e-9)
		})
	}
}

func TestParseMonetary_Total(t *testing.T) {
	inputs := []string{
		"", "-", "--", ",", "億", "億円", "1e400", "-1e400", "0x1p3", "\x00\xff",
		"１２３", "12,,3", " 7 億 ", "∞", "NaN億", "+Inf",
	}
	for _, in := range inputs {
		got := ParseMonetary(in)
		assert.False(t, math.IsNaN(got) || math.IsInf(got, 0), "input %q produced %v", in, got)
	}
}

func TestParseAmount(t *testing.T) {
	v, ok := ParseAmount("404.3")
	assert.True(t, ok)
	assert.InDelta(t, 404.3, v, 1e-9)

	v, ok = ParseAmount("46.2億")
	assert.True(t, ok)
	assert.InDelta(t, 46.2, v, 1e-9)

	v, ok = ParseAmount("1,024.5億円")
	assert.True(t, ok)
	assert.InDelta(t, 1024.5, v, 1e-9)

	_, ok = ParseAmount("")
	assert.False(t, ok)

	_, ok = ParseAmount("nan")
	assert.False(t, ok)

	_, ok = ParseAmount("unknown")
	assert.False(t, ok)
}
