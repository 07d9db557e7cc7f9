package resolve

import (
	"fmt"
	"github.com/cottand/kinfer/frontend/constraints"
	"github.com/cottand/kinfer/frontend/ilerr"
	"github.com/cottand/kinfer/frontend/types"
	"log/slog"
)

// Candidate is the result of resolving one call against one applicable declaration.
//
// The candidate owns its System. Apart from that system, it is not changed
// once it takes part in completion.
type Candidate struct {
	Symbol      Symbol
	Substitutor types.Substitutor
	System      *constraints.System
	// Diagnostics are problems found while resolving the call, which are not constraint errors
	Diagnostics *ilerr.Errors
	// Variables are the fresh variables the type parameters of Symbol were substituted with
	Variables []*types.Variable
	Postponed []*constraints.PostponedArgument
	// SubAtoms are atoms of already resolved nested calls, such as the arguments of this call
	SubAtoms []constraints.Atom
}

var _ constraints.Atom = (*Candidate)(nil)

// NewCandidate instantiates fn with fresh variables, in a new system of its own
func NewCandidate(fresher *types.Fresher, fn *Function, opts ...constraints.Option) *Candidate {
	substitutor, vars := fresher.Freshen(fn.TypeParams)
	system := constraints.NewSystem(opts...)
	for _, v := range vars {
		system.RegisterVariable(v)
	}
	return &Candidate{
		Symbol:      fn,
		Substitutor: substitutor,
		System:      system,
		Variables:   vars,
	}
}

func (c *Candidate) PostponedArguments() []*constraints.PostponedArgument {
	return c.Postponed
}

// Function returns the symbol of c if it is a function
func (c *Candidate) Function() (*Function, bool) {
	fn, ok := c.Symbol.(*Function)
	return fn, ok
}

// Variable returns the variable type parameter name was substituted with
func (c *Candidate) Variable(name string) (*types.Variable, bool) {
	for _, v := range c.Variables {
		if v.NameHint == name {
			return v, true
		}
	}
	return nil, false
}

// AddArgument constrains the i-th argument of the call to be a subtype of the
// (substituted) i-th value parameter of the candidate's function
func (c *Candidate) AddArgument(i int, argument types.Type) {
	fn, ok := c.Function()
	if !ok {
		panic(fmt.Sprintf("candidate %s is not a function and takes no arguments", c.Symbol.SymbolName()))
	}
	param, ok := fn.ValueParam(i)
	if !ok {
		c.Diagnostics = c.Diagnostics.With(ilerr.New(ilerr.NewInvalidScenario{
			Position: constraints.ArgumentPosition{Call: fn.Name, Index: i},
			Message:  fmt.Sprintf("too many arguments for %s", fn.Name),
		}))
		return
	}
	c.System.AddSubtypeConstraint(argument, c.Substitutor.SubstituteOrSelf(param.Type), constraints.ArgumentPosition{Call: fn.Name, Index: i})
}

// AddPostponed adds a lambda argument whose analysis needs inputs to be fixed first
func (c *Candidate) AddPostponed(arg *constraints.PostponedArgument) {
	arg.Inputs = substituteAll(c.Substitutor, arg.Inputs)
	arg.Return = c.Substitutor.SubstituteOrSelf(arg.Return)
	c.Postponed = append(c.Postponed, arg)
}

// Errors are the constraint errors of the candidate's current system
func (c *Candidate) Errors() []ilerr.IleError {
	return c.System.CurrentStorage().Errors()
}

func (c *Candidate) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("symbol", c.Symbol.SymbolName()),
		slog.Any("substitutor", c.Substitutor),
		slog.Any("storage", c.System.CurrentStorage()),
		slog.Any("diagnostics", c.Diagnostics),
	)
}

func substituteAll(s types.Substitutor, ts []types.Type) []types.Type {
	substituted := make([]types.Type, len(ts))
	for i, t := range ts {
		substituted[i] = s.SubstituteOrSelf(t)
	}
	return substituted
}

// Call is a call-shaped expression which selected a Candidate.
// Calls are compared by identity.
type Call interface {
	CalleeName() string
	// Candidate may be nil if the callee reference was not resolved to a candidate
	Candidate() *Candidate
}

var _ Call = (*FunctionCall)(nil)

type FunctionCall struct {
	Name     string
	Selected *Candidate
}

func NewFunctionCall(candidate *Candidate) *FunctionCall {
	return &FunctionCall{Name: candidate.Symbol.SymbolName(), Selected: candidate}
}

func (c *FunctionCall) CalleeName() string    { return c.Name }
func (c *FunctionCall) Candidate() *Candidate { return c.Selected }
func (c *FunctionCall) String() string        { return c.Name + "(...)" }
