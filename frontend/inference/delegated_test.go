package inference

import (
	"github.com/cottand/kinfer/frontend/constraints"
	"github.com/cottand/kinfer/frontend/resolve"
	"github.com/cottand/kinfer/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

// getValue<T, R>(thisRef: R, property: Any): T
func getValue() *resolve.Function {
	t := &types.Param{Name: "T", Owner: resolve.GetValue}
	r := &types.Param{Name: "R", Owner: resolve.GetValue}
	return &resolve.Function{
		Name:       resolve.GetValue,
		TypeParams: []*types.Param{t, r},
		ValueParams: []resolve.ValueParam{
			{Name: "thisRef", Type: r},
			{Name: "property", Type: types.Any},
		},
		ReturnType: t,
		Operator:   true,
	}
}

// setValue<T, R>(thisRef: R, property: Any, value: T)
func setValue() *resolve.Function {
	t := &types.Param{Name: "T", Owner: resolve.SetValue}
	r := &types.Param{Name: "R", Owner: resolve.SetValue}
	return &resolve.Function{
		Name:       resolve.SetValue,
		TypeParams: []*types.Param{t, r},
		ValueParams: []resolve.ValueParam{
			{Name: "thisRef", Type: r},
			{Name: "property", Type: types.Any},
			{Name: "value", Type: t},
		},
		ReturnType: types.Unit,
		Operator:   true,
	}
}

func accessorCall(t *testing.T, fresher *types.Fresher, fn *resolve.Function) (*resolve.FunctionCall, *types.Variable, *types.Variable) {
	t.Helper()
	candidate := resolve.NewCandidate(fresher, fn)
	tVar, ok := candidate.Variable("T")
	require.True(t, ok)
	rVar, ok := candidate.Variable("R")
	require.True(t, ok)
	return resolve.NewFunctionCall(candidate), tVar, rVar
}

func TestDelegatedGetValue(t *testing.T) {
	fresher := types.NewFresher()
	call, tVar, rVar := accessorCall(t, fresher, getValue())
	strategy := &DelegatedPropertyStrategy{
		Property:     &resolve.Property{Name: "x", ReturnType: intType},
		ExpectedType: intType,
		Container:    &resolve.ClassDecl{Name: "Foo"},
	}

	session := NewSession(strategy)
	session.RecordPartiallyResolved(call)
	result := ResolveCandidates[*resolve.FunctionCall](session)

	require.Equal(t, []*resolve.FunctionCall{call}, result)
	assert.Equal(t, "Int", fixedIn(t, call, tVar).String())
	assert.Equal(t, "Foo", fixedIn(t, call, rVar).String())
	assert.Empty(t, call.Candidate().Errors())
}

func TestDelegatedGetValueWithSubstitutedReturnType(t *testing.T) {
	fn := getValue()
	r := fn.TypeParams[1]
	rVar := types.NewFresher().NewVariable("R")
	system := constraints.NewSystem()
	system.RegisterVariable(rVar)
	// T was already inferred to be Int while resolving the call
	candidate := &resolve.Candidate{
		Symbol:      fn,
		Substitutor: types.NewSubstitutor(map[*types.Param]types.Type{fn.TypeParams[0]: intType, r: rVar}),
		System:      system,
		Variables:   []*types.Variable{rVar},
	}
	call := resolve.NewFunctionCall(candidate)
	strategy := &DelegatedPropertyStrategy{
		Property:     &resolve.Property{Name: "x"},
		ExpectedType: intType,
		Container:    &resolve.ClassDecl{Name: "Foo"},
	}

	session := NewSession(strategy)
	session.RecordPartiallyResolved(call)
	ResolveCandidates[*resolve.FunctionCall](session)

	initial := call.Candidate().System.CurrentStorage().InitialConstraints()
	require.Len(t, initial, 2)
	assert.Equal(t, "Int", initial[0].Lower.String())
	assert.Equal(t, "Int", initial[0].Upper.String())
	assert.Equal(t, "Foo", initial[1].Lower.String())
	assert.Same(t, rVar, initial[1].Upper)
	assert.Equal(t, "Foo", fixedIn(t, call, rVar).String())
}

func TestDelegatedSetValue(t *testing.T) {
	fresher := types.NewFresher()
	call, tVar, rVar := accessorCall(t, fresher, setValue())
	strategy := &DelegatedPropertyStrategy{
		Property:     &resolve.Property{Name: "x"},
		ExpectedType: stringType,
		Container:    &resolve.AnonymousObject{SyntheticName: "<anonymous object>"},
	}

	session := NewSession(strategy)
	session.RecordPartiallyResolved(call)
	ResolveCandidates[*resolve.FunctionCall](session)

	assert.Equal(t, "String", fixedIn(t, call, tVar).String())
	assert.Equal(t, "<anonymous object>", fixedIn(t, call, rVar).String())
}

func TestDelegatedAccessorsShareVariables(t *testing.T) {
	fresher := types.NewFresher()
	getter, getterT, getterR := accessorCall(t, fresher, getValue())
	setter, setterT, setterR := accessorCall(t, fresher, setValue())
	setter.Candidate().System.AddOtherSystem(getter.Candidate().System.CurrentStorage())
	strategy := &DelegatedPropertyStrategy{
		Property:     &resolve.Property{Name: "x"},
		ExpectedType: intType,
		Container:    &resolve.ClassDecl{Name: "Foo"},
	}

	session := NewSession(strategy)
	session.RecordPartiallyResolved(getter)
	session.RecordPartiallyResolved(setter)
	ResolveCandidates[*resolve.FunctionCall](session)

	assert.Same(t, getter.Candidate().System, setter.Candidate().System)
	for _, v := range []*types.Variable{getterT, setterT} {
		assert.Equal(t, "Int", fixedIn(t, getter, v).String())
	}
	for _, v := range []*types.Variable{getterR, setterR} {
		assert.Equal(t, "Foo", fixedIn(t, getter, v).String())
	}
}

func TestDelegatedWithoutExpectedType(t *testing.T) {
	call, _, rVar := accessorCall(t, types.NewFresher(), getValue())
	strategy := &DelegatedPropertyStrategy{Property: &resolve.Property{Name: "x"}}

	system := constraints.NewSystem()
	strategy.PrepareForCompletion(system.Builder(), []resolve.Call{call})

	initial := system.CurrentStorage().InitialConstraints()
	require.Len(t, initial, 1, "only the receiver is constrained")
	assert.Equal(t, types.NullableNothingType, initial[0].Lower)
	assert.Same(t, rVar, initial[0].Upper)
}

func TestTypeOfThis(t *testing.T) {
	box := &types.Param{Name: "E", Owner: "Box"}
	testCases := []struct {
		name     string
		strategy DelegatedPropertyStrategy
		want     string
	}{
		{
			name: "extension receiver wins",
			strategy: DelegatedPropertyStrategy{
				Property:  &resolve.Property{Name: "x", ReceiverType: stringType},
				Container: &resolve.ClassDecl{Name: "Foo"},
			},
			want: "String",
		},
		{
			name: "container class",
			strategy: DelegatedPropertyStrategy{
				Property:  &resolve.Property{Name: "x"},
				Container: &resolve.ClassDecl{Name: "Box", TypeParams: []*types.Param{box}},
			},
			want: "Box<E>",
		},
		{
			name: "anonymous object",
			strategy: DelegatedPropertyStrategy{
				Property:  &resolve.Property{Name: "x"},
				Container: &resolve.AnonymousObject{SyntheticName: "Obj"},
			},
			want: "Obj",
		},
		{
			name:     "top level property",
			strategy: DelegatedPropertyStrategy{Property: &resolve.Property{Name: "x"}},
			want:     "Nothing?",
		},
		{
			name:     "no property",
			strategy: DelegatedPropertyStrategy{},
			want:     "Nothing?",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.strategy.typeOfThis().String())
		})
	}
}

func TestDelegatedRejectsOtherCalls(t *testing.T) {
	call, _ := newCall(types.NewFresher())
	strategy := &DelegatedPropertyStrategy{Property: &resolve.Property{Name: "x"}}

	assert.PanicsWithValue(t, "unexpected call 'identity' in delegated property 'x'", func() {
		strategy.PrepareForCompletion(constraints.NewSystem().Builder(), []resolve.Call{call})
	})
}

func TestShouldCompleteResolvedSubAtoms(t *testing.T) {
	call, _ := newCall(types.NewFresher())
	assert.True(t, (&DelegatedPropertyStrategy{}).ShouldCompleteResolvedSubAtomsOf(call))
	assert.False(t, DefaultStrategy{}.ShouldCompleteResolvedSubAtomsOf(call))
}

func TestLambdaAnalyzer(t *testing.T) {
	fresher := types.NewFresher()
	in := fresher.NewVariable("A")
	out := fresher.NewVariable("B")
	system := constraints.NewSystem()
	system.AddSubtypeConstraint(intType, in, pos)
	system.Fix(in, intType, pos)

	var seen []types.Type
	LambdaAnalyzer{}.Analyze(system.Builder(), &constraints.PostponedArgument{
		Name:   "lambda",
		Inputs: []types.Type{list(in)},
		Return: out,
		Body: func(_ constraints.Builder, inputs []types.Type) types.Type {
			seen = inputs
			return inputs[0]
		},
	})

	require.Len(t, seen, 1)
	assert.Equal(t, "List<Int>", seen[0].String())
	withConstraints, ok := system.CurrentStorage().NotFixed(out)
	require.True(t, ok)
	require.Len(t, withConstraints.Lower, 1)
	assert.Equal(t, "List<Int>", withConstraints.Lower[0].Type.String())
	assert.Equal(t, constraints.LambdaResultPosition{Return: out}, withConstraints.Lower[0].Position)
}

func TestLambdaAnalyzerWithoutBody(t *testing.T) {
	system := constraints.NewSystem()
	out := types.NewFresher().NewVariable("B")
	LambdaAnalyzer{}.Analyze(system.Builder(), &constraints.PostponedArgument{Name: "lambda", Return: out})
	assert.Empty(t, system.CurrentStorage().InitialConstraints())
}
