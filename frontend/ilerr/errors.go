package ilerr

import (
	"fmt"
	"github.com/cottand/kinfer/frontend/types"
	"runtime/debug"
	"strings"
	"sync/atomic"
)

type ErrCode int

const (
	None ErrCode = iota
	TypeMismatch
	NullabilityMismatch
	CannotInfer
	ContradictoryFixation
	InvalidScenario
)

// Position says where in the constraint system a constraint came from
type Position interface {
	Describe() string
}

// IleError is a problem with a constraint system which a malformed program can cause.
// They are carried as data in constraint storages and never thrown.
type IleError interface {
	Error() string
	Code() ErrCode
	At() Position

	withStack([]byte) IleError
	getStack() []byte
}

// StackPrinting is how much of an error's captured stack FormatWithCode prints
type StackPrinting int32

const (
	NoStacks StackPrinting = iota
	// CallerFrame prints the file and line the error was created at
	CallerFrame
	FullStack
)

var stackPrinting atomic.Int32

func SetStackPrinting(p StackPrinting) {
	stackPrinting.Store(int32(p))
}

func FormatWithCode(e IleError) string {
	stack := e.getStack()
	switch StackPrinting(stackPrinting.Load()) {
	case CallerFrame:
		if frame, ok := callerFrame(stack); ok {
			return fmt.Sprintf("%s: (E%03d) %s", frame, e.Code(), e.Error())
		}
	case FullStack:
		if stack != nil {
			return fmt.Sprintf("(E%03d) %s\n%s", e.Code(), e.Error(), stack)
		}
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

// callerFrame finds the location of whoever called New in a stack taken by New
func callerFrame(stack []byte) (string, bool) {
	// goroutine header, then debug.Stack and New, each with a location line
	lines := strings.Split(string(stack), "\n")
	if len(lines) <= 6 {
		return "", false
	}
	frame, _, _ := strings.Cut(strings.TrimSpace(lines[6]), " +0x")
	return frame, true
}

func New[E IleError](err E) IleError {
	return err.withStack(debug.Stack())
}

func describe(p Position) string {
	if p == nil {
		return "unknown position"
	}
	return p.Describe()
}

// NewTypeMismatch is reported when Lower <: Upper was required but does not hold
type NewTypeMismatch struct {
	Position Position
	Lower    types.Type
	Upper    types.Type
	Reason   string
	stack    []byte
}

func (e NewTypeMismatch) Error() string {
	msg := fmt.Sprintf("type mismatch at %s: '%v' is not a subtype of '%v'", describe(e.Position), e.Lower, e.Upper)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}
func (e NewTypeMismatch) Code() ErrCode    { return TypeMismatch }
func (e NewTypeMismatch) At() Position     { return e.Position }
func (e NewTypeMismatch) getStack() []byte { return e.stack }
func (e NewTypeMismatch) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewNullabilityMismatch struct {
	Position Position
	Lower    types.Type
	Upper    types.Type
	stack    []byte
}

func (e NewNullabilityMismatch) Error() string {
	return fmt.Sprintf("nullability mismatch at %s: nullable '%v' cannot be used where '%v' is expected", describe(e.Position), e.Lower, e.Upper)
}
func (e NewNullabilityMismatch) Code() ErrCode    { return NullabilityMismatch }
func (e NewNullabilityMismatch) At() Position     { return e.Position }
func (e NewNullabilityMismatch) getStack() []byte { return e.stack }
func (e NewNullabilityMismatch) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

// NewCannotInfer is reported when a variable has to be fixed but has no proper bounds
type NewCannotInfer struct {
	Position Position
	Variable *types.Variable
	stack    []byte
}

func (e NewCannotInfer) Error() string {
	return fmt.Sprintf("not enough information to infer type variable '%v'", e.Variable)
}
func (e NewCannotInfer) Code() ErrCode    { return CannotInfer }
func (e NewCannotInfer) At() Position     { return e.Position }
func (e NewCannotInfer) getStack() []byte { return e.stack }
func (e NewCannotInfer) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

// NewContradictoryFixation is reported when a variable gets fixed a second time to a different type
type NewContradictoryFixation struct {
	Position Position
	Variable *types.Variable
	Previous types.Type
	New      types.Type
	stack    []byte
}

func (e NewContradictoryFixation) Error() string {
	return fmt.Sprintf("type variable '%v' is already fixed to '%v', cannot fix it to '%v'", e.Variable, e.Previous, e.New)
}
func (e NewContradictoryFixation) Code() ErrCode    { return ContradictoryFixation }
func (e NewContradictoryFixation) At() Position     { return e.Position }
func (e NewContradictoryFixation) getStack() []byte { return e.stack }
func (e NewContradictoryFixation) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

// NewInvalidScenario is a candidate-level diagnostic recorded while a call was being
// resolved, before it reached an inference session
type NewInvalidScenario struct {
	Position Position
	Message  string
	stack    []byte
}

func (e NewInvalidScenario) Error() string    { return e.Message }
func (e NewInvalidScenario) Code() ErrCode    { return InvalidScenario }
func (e NewInvalidScenario) At() Position     { return e.Position }
func (e NewInvalidScenario) getStack() []byte { return e.stack }
func (e NewInvalidScenario) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
