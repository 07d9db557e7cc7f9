package inference

import (
	"github.com/cottand/kinfer/frontend/constraints"
	"github.com/cottand/kinfer/frontend/types"
)

// PostponedArgumentsAnalyzer analyses a postponed argument once the
// completer decided its inputs are known
type PostponedArgumentsAnalyzer interface {
	Analyze(b constraints.Builder, arg *constraints.PostponedArgument)
}

// LambdaAnalyzer runs the body of a lambda argument against its now fixed
// parameter types and constrains the lambda's result to its return type
type LambdaAnalyzer struct{}

var _ PostponedArgumentsAnalyzer = LambdaAnalyzer{}

func (LambdaAnalyzer) Analyze(b constraints.Builder, arg *constraints.PostponedArgument) {
	if arg.Body == nil {
		return
	}
	inputs := make([]types.Type, len(arg.Inputs))
	for i, input := range arg.Inputs {
		inputs[i] = b.Substitute(input)
	}
	result := arg.Body(b, inputs)
	if result == nil || arg.Return == nil {
		return
	}
	b.AddSubtypeConstraint(result, arg.Return, constraints.LambdaResultPosition{Return: arg.Return})
}
