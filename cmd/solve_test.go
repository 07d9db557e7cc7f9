package cmd

import (
	"bytes"
	"github.com/cottand/kinfer/frontend/ilerr"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

const testdata = "../frontend/scenario/testdata/"

func init() {
	color.NoColor = true
}

func TestSolvePrintsFixedTypes(t *testing.T) {
	var out bytes.Buffer
	SolveCmd.SetOut(&out)

	err := runSolve(SolveCmd, []string{testdata + "delegate.yaml"})

	require.NoError(t, err)
	assert.Equal(t, "getValue\n  T := Int\n  R := Foo\nsetValue\n  T := Int\n  R := Foo\n", out.String())
}

func TestSolvePrintsErrors(t *testing.T) {
	var out bytes.Buffer
	SolveCmd.SetOut(&out)

	err := runSolve(SolveCmd, []string{testdata + "failed.yaml"})

	require.NoError(t, err)
	assert.Equal(t, "id\n  T := Int\nid (resolution failed)\n", out.String())
}

func TestSolveMissingFile(t *testing.T) {
	err := runSolve(SolveCmd, []string{testdata + "missing.yaml"})
	assert.ErrorContains(t, err, "could not open scenario")
}

func TestCheck(t *testing.T) {
	t.Run("passes without errors", func(t *testing.T) {
		var errOut bytes.Buffer
		CheckCmd.SetErr(&errOut)

		assert.NoError(t, runCheck(CheckCmd, []string{testdata + "lambda.yaml"}))
		assert.Empty(t, errOut.String())
	})

	t.Run("fails with errors", func(t *testing.T) {
		var errOut bytes.Buffer
		CheckCmd.SetErr(&errOut)

		err := runCheck(CheckCmd, []string{testdata + "mixed.yaml"})

		assert.ErrorContains(t, err, "has inference errors")
		assert.Contains(t, errOut.String(), "type mismatch")
	})
}

func TestParseStackPrinting(t *testing.T) {
	testCases := []struct {
		value string
		want  ilerr.StackPrinting
	}{
		{"", ilerr.NoStacks},
		{"none", ilerr.NoStacks},
		{"frame", ilerr.CallerFrame},
		{"full", ilerr.FullStack},
	}
	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			got, err := ParseStackPrinting(tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := ParseStackPrinting("sometimes")
	assert.ErrorContains(t, err, "unknown --error-stacks value 'sometimes'")
}
