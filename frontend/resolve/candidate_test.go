package resolve

import (
	"github.com/cottand/kinfer/frontend/constraints"
	"github.com/cottand/kinfer/frontend/ilerr"
	"github.com/cottand/kinfer/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

// listOf<T>(head: T, tail: List<T>): List<T>
func listOf() *Function {
	t := &types.Param{Name: "T", Owner: "listOf"}
	list := &types.Class{Name: "List", Args: []types.Type{t}}
	return &Function{
		Name:        "listOf",
		TypeParams:  []*types.Param{t},
		ValueParams: []ValueParam{{Name: "head", Type: t}, {Name: "tail", Type: list}},
		ReturnType:  list,
	}
}

func TestNewCandidate(t *testing.T) {
	fresher := types.NewFresher()
	fresher.NewVariable("taken")
	candidate := NewCandidate(fresher, listOf())

	require.Len(t, candidate.Variables, 1)
	v, ok := candidate.Variable("T")
	require.True(t, ok)
	assert.Equal(t, types.VarID(1), v.ID)
	_, ok = candidate.Variable("R")
	assert.False(t, ok)

	assert.True(t, candidate.System.IsNotFixed(v), "fresh variables are registered")
	assert.Equal(t, "List<T#1>", candidate.Substitutor.SubstituteOrSelf(listOf().ReturnType).String())

	fn, ok := candidate.Function()
	require.True(t, ok)
	assert.Equal(t, "listOf", fn.Name)
}

func TestAddArgument(t *testing.T) {
	candidate := NewCandidate(types.NewFresher(), listOf())
	v := candidate.Variables[0]
	intType := &types.Class{Name: "Int"}

	candidate.AddArgument(0, intType)
	candidate.AddArgument(1, &types.Class{Name: "List", Args: []types.Type{intType}})

	withConstraints, ok := candidate.System.CurrentStorage().NotFixed(v)
	require.True(t, ok)
	require.Len(t, withConstraints.Lower, 1)
	assert.Equal(t, "Int", withConstraints.Lower[0].Type.String())
	assert.Equal(t, constraints.ArgumentPosition{Call: "listOf", Index: 0}, withConstraints.Lower[0].Position)
	assert.Empty(t, candidate.Errors())
	assert.False(t, candidate.Diagnostics.HasError())

	candidate.AddArgument(2, intType)
	require.Len(t, candidate.Diagnostics.Errors(), 1)
	assert.Equal(t, ilerr.InvalidScenario, candidate.Diagnostics.Errors()[0].Code())
}

func TestAddArgumentToPropertyPanics(t *testing.T) {
	candidate := &Candidate{Symbol: &Property{Name: "x"}, System: constraints.NewSystem()}
	assert.Panics(t, func() { candidate.AddArgument(0, types.Any) })
}

func TestAddPostponedSubstitutes(t *testing.T) {
	fn := listOf()
	candidate := NewCandidate(types.NewFresher(), fn)
	arg := &constraints.PostponedArgument{
		Name:   "lambda",
		Inputs: []types.Type{fn.TypeParams[0]},
		Return: fn.ReturnType,
	}

	candidate.AddPostponed(arg)

	assert.Equal(t, []*constraints.PostponedArgument{arg}, candidate.PostponedArguments())
	assert.Same(t, candidate.Variables[0], arg.Inputs[0])
	assert.Equal(t, "List<T#0>", arg.Return.String())
}

func TestDefaultTypes(t *testing.T) {
	e := &types.Param{Name: "E", Owner: "Box"}
	assert.Equal(t, "Box<E>", (&ClassDecl{Name: "Box", TypeParams: []*types.Param{e}}).DefaultType().String())
	assert.Equal(t, "Foo", (&ClassDecl{Name: "Foo"}).DefaultType().String())
	assert.Equal(t, "<object>", (&AnonymousObject{SyntheticName: "<object>"}).DefaultType().String())
}

func TestFunctionCall(t *testing.T) {
	candidate := NewCandidate(types.NewFresher(), listOf())
	call := NewFunctionCall(candidate)

	assert.Equal(t, "listOf", call.CalleeName())
	assert.Same(t, candidate, call.Candidate())
	assert.Nil(t, (&FunctionCall{Name: "unresolved"}).Candidate())
}
