package odds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImpliedProbability(t *testing.T) {
	tests := []struct {
		quote  string
		format Format
		want   float64
	}{
		{"-150", American, 0.6},
		{"+150", American, 0.4},
		{"150", American, 0.4},
		{"100", American, 0.5},
		{"-100", American, 0.5},
		{"2.5", Decimal, 0.4},
		{"1.25", Decimal, 0.8},
		{"3/2", Fractional, 0.4},
		{"1/1", Fractional, 0.5},
		{" 1 / 4 ", Fractional, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.format.String()+" "+tt.quote, func(t *testing.T) {
			got, err := ImpliedProbability(tt.quote, tt.format)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestImpliedProbability_Invalid(t *testing.T) {
	tests := []struct {
		quote  string
		format Format
	}{
		{"abc", American},
		{"0", Decimal},
		{"-2", Decimal},
		{"3-2", Fractional},
		{"3/0", Fractional},
		{"x/2", Fractional},
		{"NaN", American},
		{"+Inf", American},
		{"-Inf", American},
		{"NaN", Decimal},
		{"Inf", Decimal},
		{"infinity", Decimal},
	}

	for _, tt := range tests {
		t.Run(tt.format.String()+" "+tt.quote, func(t *testing.T) {
			_, err := ImpliedProbability(tt.quote, tt.format)
			assert.ErrorIs(t, err, ErrInvalidOdds)
		})
	}

	_, err := ImpliedProbability("1", Format(9))
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": American, "American": American, "DECIMAL": Decimal, "fractional": Fractional} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("moneyline")
	assert.Error(t, err)
}
