package scenario

import (
	"github.com/cottand/kinfer/frontend/ilerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func solve(t *testing.T, path string) Report {
	t.Helper()
	s, err := Load(path)
	require.NoError(t, err)
	built, err := s.Build()
	require.NoError(t, err)
	return built.Solve()
}

// variables renders the fixed variables of a call as `T := Int`
func variables(call CallResult) []string {
	var rendered []string
	for _, v := range call.Variables {
		if !v.Fixed {
			rendered = append(rendered, v.Param+" := ?")
			continue
		}
		rendered = append(rendered, v.Param+" := "+v.Type.String())
	}
	return rendered
}

func codes(errs []ilerr.IleError) []ilerr.ErrCode {
	var c []ilerr.ErrCode
	for _, err := range errs {
		c = append(c, err.Code())
	}
	return c
}

func TestDelegatedPropertyScenario(t *testing.T) {
	report := solve(t, "testdata/delegate.yaml")

	require.Len(t, report.Completed, 2)
	assert.Equal(t, "getValue", report.Completed[0].Callee)
	assert.Equal(t, []string{"T := Int", "R := Foo"}, variables(report.Completed[0]))
	assert.Equal(t, "setValue", report.Completed[1].Callee)
	assert.Equal(t, []string{"T := Int", "R := Foo"}, variables(report.Completed[1]))
	assert.False(t, report.HasErrors())
}

func TestMixedScenario(t *testing.T) {
	report := solve(t, "testdata/mixed.yaml")

	require.Len(t, report.Completed, 2, "only the first good and the first bad call are completed")
	good, bad := report.Completed[0], report.Completed[1]
	assert.Equal(t, []string{"T := Int"}, variables(good))
	assert.Empty(t, good.Errors)
	assert.Equal(t, []string{"T := String"}, variables(bad))
	assert.NotEmpty(t, bad.Errors)
	for _, code := range codes(bad.Errors) {
		assert.Equal(t, ilerr.TypeMismatch, code)
	}
	assert.True(t, report.HasErrors())
}

func TestLambdaScenario(t *testing.T) {
	report := solve(t, "testdata/lambda.yaml")

	require.Len(t, report.Completed, 2)
	assert.Equal(t, []string{"T := String", "R := Box<String>"}, variables(report.Completed[0]))
	assert.Equal(t, []string{"R := Unit"}, variables(report.Completed[1]), "an unconstrained lambda result is Unit")
	assert.False(t, report.HasErrors())
}

func TestFailedCallsAreReportedSeparately(t *testing.T) {
	report := solve(t, "testdata/failed.yaml")

	require.Len(t, report.Completed, 1)
	assert.Equal(t, []string{"T := Int"}, variables(report.Completed[0]))
	assert.Equal(t, []string{"id"}, report.Failed)
	assert.True(t, report.HasErrors())
}

func TestCannotInferScenario(t *testing.T) {
	s, err := Parse(strings.NewReader(`
functions:
  - name: empty
    typeParams: [T]
calls:
  - callee: empty
`))
	require.NoError(t, err)
	built, err := s.Build()
	require.NoError(t, err)

	report := built.Solve()
	require.Len(t, report.Completed, 1)
	assert.Equal(t, []ilerr.ErrCode{ilerr.CannotInfer}, codes(report.Completed[0].Errors))
}

func TestTooManyArgumentsIsADiagnostic(t *testing.T) {
	s, err := Parse(strings.NewReader(`
functions:
  - name: id
    typeParams: [T]
    params: [{name: x, type: T}]
    returns: T
calls:
  - callee: id
    args: [Int, Int]
`))
	require.NoError(t, err)
	built, err := s.Build()
	require.NoError(t, err)

	report := built.Solve()
	require.Len(t, report.Completed, 1)
	assert.Equal(t, []string{"T := Int"}, variables(report.Completed[0]))
	assert.Equal(t, []ilerr.ErrCode{ilerr.InvalidScenario}, codes(report.Completed[0].Diagnostics))
	assert.True(t, report.HasErrors())
}

func TestInvalidScenarios(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "unknown field",
			src:     "calls: [{callee: f, argz: [Int]}]",
			wantErr: "could not decode scenario",
		},
		{
			name:    "no calls",
			src:     "functions: [{name: f}]",
			wantErr: "scenario has no calls",
		},
		{
			name:    "unknown function",
			src:     "calls: [{callee: f}]",
			wantErr: "unknown function f",
		},
		{
			name:    "bad argument type",
			src:     "functions: [{name: f, params: [{name: x, type: Int}]}]\ncalls: [{callee: f, args: ['List<Int']}]",
			wantErr: "invalid type 'List<Int'",
		},
		{
			name:    "bad constraint",
			src:     "functions: [{name: f, typeParams: [T]}]\ncalls: [{callee: f, constraints: ['T Int']}]",
			wantErr: "invalid constraint",
		},
		{
			name:    "bad lambda result",
			src:     "functions: [{name: f, typeParams: [T]}]\ncalls: [{callee: f, lambdas: [{returns: T, result: 'T<Int>'}]}]",
			wantErr: "cannot have arguments",
		},
		{
			name:    "function declared twice",
			src:     "functions: [{name: f}, {name: f}]\ncalls: [{callee: f}]",
			wantErr: "function f declared twice",
		},
		{
			name:    "class declared twice",
			src:     "classes: [{name: Foo}, {name: Foo}]\nfunctions: [{name: f}]\ncalls: [{callee: f}]",
			wantErr: "class Foo declared twice",
		},
		{
			name:    "other calls in a delegated property",
			src:     "functions: [{name: f}]\nproperty: {name: x}\ncalls: [{callee: f}]",
			wantErr: "delegated property x can only have getValue and setValue calls",
		},
		{
			name:    "unknown container",
			src:     "functions: [{name: getValue}]\nproperty: {name: x, container: Foo}\ncalls: [{callee: getValue}]",
			wantErr: "unknown container class Foo",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Parse(strings.NewReader(tc.src))
			if err == nil {
				_, err = s.Build()
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("testdata/does-not-exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not open scenario")
}
