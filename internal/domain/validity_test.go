package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidator_AcceptsWellFormedSource(t *testing.T) {
	v := NewValidator(false)

	sources := []string{
		"",
		"x = 1\n",
		"def f(a, b):\n    return {a: [b, (a, b)]}\n",
		"s = 'text with ) inside'\n",
		"# just ) a comment\n",
	}

	for _, src := range sources {
		require.NoError(t, v.Validate(context.Background(), src), "source %q", src)
	}
}

func TestValidator_RejectsUnterminatedLiteral(t *testing.T) {
	v := NewValidator(false)

	err := v.Validate(context.Background(), "x = 'oops\n")
	require.Error(t, err)
}

func TestValidator_RejectsUnbalancedBrackets(t *testing.T) {
	v := NewValidator(false)

	cases := []string{
		"f(1\n",
		"x = )\n",
		"d = {1: [2}\n",
	}

	for _, src := range cases {
		require.Error(t, v.Validate(context.Background(), src), "source %q", src)
	}
}

func TestValidator_DepthOnlyBracketCheck(t *testing.T) {
	v := NewValidator(false)

	// Bracket kinds are not matched pairwise, only depth; mismatched pairs
	// pass the gate and are left to the optional smoke test.
	require.NoError(t, v.Validate(context.Background(), "x = (1]\n"))
}

func TestValidator_BracketsInsideLiteralsIgnored(t *testing.T) {
	v := NewValidator(false)

	require.NoError(t, v.Validate(context.Background(), "x = '((('\n"))
}
