package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalArith(t *testing.T) {
	vars := map[string]string{"N": "6", "NEG": "-2", "WORD": "abc"}
	lookup := func(name string) string { return vars[name] }

	cases := []struct {
		expr string
		want int64
	}{
		{"1", 1},
		{"-5", -5},
		{"1+2", 3},
		{"10 - 4", 6},
		{"3*7", 21},
		{"9/2", 4},
		{"9%4", 1},
		// Left to right, no precedence.
		{"2+3*4", 20},
		{"2*(3+4)", 14},
		{"(1+2)*(3+4)", 21},
		// Division and modulus by zero yield 0.
		{"5/0", 0},
		{"5%0", 0},
		{"5/(1-1)", 0},
		// Variable references.
		{"$N*2", 12},
		{"$N+$NEG", 4},
		// Unset or non-numeric variables count as 0.
		{"$UNSET+1", 1},
		{"$WORD+1", 1},
	}

	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			got, err := EvalArith(tc.expr, lookup)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEvalArithErrors(t *testing.T) {
	lookup := func(string) string { return "" }

	for _, expr := range []string{"", "1+", "(1+2", "1 2", "+", "$", "a"} {
		t.Run(expr, func(t *testing.T) {
			_, err := EvalArith(expr, lookup)
			assert.Error(t, err)
		})
	}
}
