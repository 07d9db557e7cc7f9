package constraints

import (
	"fmt"
	"github.com/cottand/kinfer/frontend/ilerr"
	"github.com/cottand/kinfer/frontend/types"
)

var (
	_ ilerr.Position = SimplePosition{}
	_ ilerr.Position = FixVariablePosition{}
	_ ilerr.Position = ExpectedTypePosition{}
	_ ilerr.Position = ReceiverPosition{}
	_ ilerr.Position = ArgumentPosition{}
	_ ilerr.Position = LambdaResultPosition{}
)

// SimplePosition is used for constraints added by code which has no better position to offer
type SimplePosition struct{}

func (SimplePosition) Describe() string { return "simple constraint" }

type FixVariablePosition struct {
	Variable *types.Variable
}

func (p FixVariablePosition) Describe() string {
	return fmt.Sprintf("fixation of %v", p.Variable)
}

// ExpectedTypePosition is a constraint against the type the caller expected from Call
type ExpectedTypePosition struct {
	Call string
}

func (p ExpectedTypePosition) Describe() string {
	return fmt.Sprintf("expected type of %s", p.Call)
}

// ReceiverPosition is a constraint binding the owner of a delegated property to the
// receiver parameter of one of its accessors
type ReceiverPosition struct {
	Call string
}

func (p ReceiverPosition) Describe() string {
	return fmt.Sprintf("receiver of %s", p.Call)
}

type ArgumentPosition struct {
	Call  string
	Index int
}

func (p ArgumentPosition) Describe() string {
	return fmt.Sprintf("argument #%d of %s", p.Index, p.Call)
}

type LambdaResultPosition struct {
	Return types.Type
}

func (p LambdaResultPosition) Describe() string {
	return fmt.Sprintf("lambda result (%v)", p.Return)
}
