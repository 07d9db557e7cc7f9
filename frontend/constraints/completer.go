package constraints

import (
	"github.com/cottand/kinfer/frontend/ilerr"
	"github.com/cottand/kinfer/frontend/types"
	"github.com/cottand/kinfer/internal/log"
	"github.com/cottand/kinfer/util"
	"github.com/hashicorp/go-set/v3"
	"log/slog"
	"slices"
)

type CompletionMode int

const (
	// Full fixes every variable of the system, reporting the ones nothing can be inferred for
	Full CompletionMode = iota
	// Partial only fixes variables which have proper bounds
	Partial
)

func (m CompletionMode) String() string {
	switch m {
	case Full:
		return "FULL"
	case Partial:
		return "PARTIAL"
	}
	return "UNKNOWN"
}

// PostponedArgument is an argument (usually a lambda) which cannot be analysed until its
// input types are known. Once they are, the completer hands it to the analyzer callback.
type PostponedArgument struct {
	Name   string
	Inputs []types.Type
	Return types.Type
	// Body is what analysing the argument does: given the fixed input types, it may add
	// constraints through b and returns the type of the argument's result
	Body func(b Builder, inputs []types.Type) types.Type
}

// Atom is a call-like thing whose postponed arguments take part in completion
type Atom interface {
	PostponedArguments() []*PostponedArgument
}

// PostponedArgumentCallback is invoked synchronously, mid-completion.
// It may add further constraints to the system being completed.
type PostponedArgumentCallback func(arg *PostponedArgument)

// Completer fixes the variables of a system
type Completer struct {
	logger *slog.Logger
}

func NewCompleter() *Completer {
	return &Completer{
		logger: log.DefaultLogger.With("section", "constraints.completion"),
	}
}

// Complete runs fixation over sys until nothing is left to do.
//
// Postponed arguments of atoms are analysed as soon as all their inputs are proper.
// expected is what a postponed return variable with no bounds is fixed to, in Full mode.
func (c *Completer) Complete(
	sys *System,
	mode CompletionMode,
	atoms []Atom,
	expected types.Type,
	analyze PostponedArgumentCallback,
) {
	var postponed []*PostponedArgument
	seen := set.New[*PostponedArgument](0)
	for _, atom := range atoms {
		for _, arg := range atom.PostponedArguments() {
			if seen.Insert(arg) {
				postponed = append(postponed, arg)
			}
		}
	}
	for _, arg := range postponed {
		for _, t := range arg.Inputs {
			sys.registerVariablesIn(t)
		}
		sys.registerVariablesIn(arg.Return)
	}

	analysed := set.New[*PostponedArgument](len(postponed))
	c.logger.Debug("starting completion", "mode", mode, "atoms", len(atoms), "postponed", len(postponed))

	for {
		if c.analyseReady(sys, postponed, analysed, analyze) {
			continue
		}
		if v, t, ok := firstReadyVariable(sys); ok {
			sys.Fix(v, t, FixVariablePosition{Variable: v})
			continue
		}
		if v, ok := firstPendingInput(sys, postponed, analysed); ok {
			if mode == Partial {
				break
			}
			c.fixWithoutBounds(sys, v, nil)
			continue
		}
		if mode == Partial {
			break
		}
		v, ok := firstNotFixed(sys)
		if !ok {
			break
		}
		c.fixWithoutBounds(sys, v, returnsOf(postponed, v, expected))
	}
	c.logger.Debug("finished completion", "storage", sys.CurrentStorage())
}

func (c *Completer) analyseReady(
	sys *System,
	postponed []*PostponedArgument,
	analysed *set.Set[*PostponedArgument],
	analyze PostponedArgumentCallback,
) bool {
	for _, arg := range postponed {
		if analysed.Contains(arg) {
			continue
		}
		ready := true
		for _, input := range arg.Inputs {
			ready = ready && sys.IsProper(input)
		}
		if !ready {
			continue
		}
		analysed.Insert(arg)
		c.logger.Debug("analysing postponed argument", "name", arg.Name)
		analyze(arg)
		return true
	}
	return false
}

// fixWithoutBounds fixes v to fallback, or to an error type when there is no fallback
func (c *Completer) fixWithoutBounds(sys *System, v *types.Variable, fallback types.Type) {
	if fallback != nil {
		sys.Fix(v, fallback, FixVariablePosition{Variable: v})
		return
	}
	sys.report(ilerr.New(ilerr.NewCannotInfer{Position: FixVariablePosition{Variable: v}, Variable: v}))
	sys.Fix(v, types.ErrorType{Reason: "cannot infer " + v.String()}, FixVariablePosition{Variable: v})
}

// returnsOf returns expected if v is the return type of one of postponed
func returnsOf(postponed []*PostponedArgument, v *types.Variable, expected types.Type) types.Type {
	if expected == nil {
		return nil
	}
	for _, arg := range postponed {
		if ret, ok := arg.Return.(*types.Variable); ok && ret.ID == v.ID {
			return expected
		}
	}
	return nil
}

func firstReadyVariable(sys *System) (*types.Variable, types.Type, bool) {
	for v := range sys.NotFixedTypeVariables() {
		if t, ok := resultType(sys, v); ok {
			return v.Variable, t, true
		}
	}
	return nil, nil, false
}

func firstPendingInput(sys *System, postponed []*PostponedArgument, analysed *set.Set[*PostponedArgument]) (*types.Variable, bool) {
	for _, arg := range postponed {
		if analysed.Contains(arg) {
			continue
		}
		for v := range util.FlatMap(arg.Inputs, types.VariablesIn) {
			if sys.IsNotFixed(v) {
				return v, true
			}
		}
	}
	return nil, false
}

func firstNotFixed(sys *System) (*types.Variable, bool) {
	v, ok := util.First(sys.NotFixedTypeVariables())
	return v.Variable, ok
}

// resultType chooses what v should be fixed to given its proper bounds:
// a type it was declared equal to, else the common supertype of its lower bounds,
// else the most specific upper bound
func resultType(sys *System, v VariableWithConstraints) (types.Type, bool) {
	for _, b := range slices.Concat(v.Lower, v.Upper) {
		if !b.Equality {
			continue
		}
		if t := sys.Substitute(b.Type); sys.IsProper(t) {
			return t, true
		}
	}
	lowers := properBounds(sys, v.Lower)
	if len(lowers) > 0 {
		return commonSupertype(sys.hierarchy, lowers), true
	}
	uppers := properBounds(sys, v.Upper)
	if len(uppers) > 0 {
		if found, ok := least(sys.hierarchy, uppers); ok {
			return found, true
		}
		return uppers[0], true
	}
	return nil, false
}

func properBounds(sys *System, bounds []Bound) []types.Type {
	var proper []types.Type
	for _, b := range bounds {
		t := sys.Substitute(b.Type)
		if sys.IsProper(t) {
			proper = append(proper, t)
		}
	}
	return proper
}
