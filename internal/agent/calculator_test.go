package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10 + 5", "🧮 10 + 5 = 15"},
		{"average of 1,2,3,4,5", "📊 Average of [1, 2, 3, 4, 5] = 3.00"},
		{"sum of 10,20,30", "📊 Sum of [10, 20, 30] = 60"},
		{"Calculate the mean of 2 and 3", "📊 Average of [2, 3] = 2.50"},
		{"(2 + 3) * 4", "🧮 (2 + 3) * 4 = 20"},
		{"7 / 2", "🧮 7 / 2 = 3.5"},
		{"-3 + 1", "🧮 -3 + 1 = -2"},
		{"09 + 1", "🧮 09 + 1 = 10"},
		{"08 + 1", "🧮 08 + 1 = 9"},
		{"0.5 + 00.25", "🧮 0.5 + 00.25 = 0.75"},
		{"5--3", "🧮 5--3 = 8"},
		{"2+-+1", "🧮 2+-+1 = 1"},
		{"10 / 0", CalculationError},
		{"1 +", CalculationError},
		{"no numbers", CalculationError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Calculate(tt.in))
		})
	}
}

func TestCalculate_Pure(t *testing.T) {
	assert.Equal(t, Calculate("3 * (4 - 1)"), Calculate("3 * (4 - 1)"))
}

func TestEvaluate_RejectsNonArithmetic(t *testing.T) {
	for _, expr := range []string{"x + 1", "len(\"a\")", "1 % 2", "2 << 3", `"a"`, "f()"} {
		_, err := Evaluate(expr)
		assert.Error(t, err, expr)
	}

	_, err := Evaluate("4 / (2 - 2)")
	assert.ErrorIs(t, err, ErrDivisionByZero)

	v, err := Evaluate("007 * 3")
	require.NoError(t, err)
	assert.Equal(t, 21.0, v)

	v, err = Evaluate("1.5 * 2")
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)
}
