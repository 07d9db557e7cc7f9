// Package inference completes groups of mutually dependent calls together,
// so that the type variables they share are fixed consistently.
package inference

import (
	"fmt"
	"github.com/cottand/kinfer/frontend/constraints"
	"github.com/cottand/kinfer/frontend/resolve"
	"github.com/cottand/kinfer/frontend/types"
	"github.com/cottand/kinfer/internal/log"
	"github.com/google/uuid"
	"github.com/hashicorp/go-set/v3"
	"log/slog"
	"slices"
)

// Session tracks the calls of one group of jointly inferred calls during one
// body resolution pass. It is not safe for concurrent use.
type Session struct {
	strategy   Strategy
	analyzer   PostponedArgumentsAnalyzer
	completer  *constraints.Completer
	unitType   types.Type
	systemOpts []constraints.Option

	errorCalls             []resolve.Call
	partiallyResolvedCalls []resolve.Call
	completedCalls         *set.Set[resolve.Call]

	logger *slog.Logger
}

type SessionOption func(*Session)

func WithAnalyzer(analyzer PostponedArgumentsAnalyzer) SessionOption {
	return func(s *Session) { s.analyzer = analyzer }
}

func WithCompleter(completer *constraints.Completer) SessionOption {
	return func(s *Session) { s.completer = completer }
}

// WithSystemOptions sets the options merged systems are created with
func WithSystemOptions(opts ...constraints.Option) SessionOption {
	return func(s *Session) { s.systemOpts = append(s.systemOpts, opts...) }
}

// WithUnitType overrides what unconstrained lambda results are fixed to
func WithUnitType(unit types.Type) SessionOption {
	return func(s *Session) { s.unitType = unit }
}

func NewSession(strategy Strategy, opts ...SessionOption) *Session {
	if strategy == nil {
		strategy = DefaultStrategy{}
	}
	s := &Session{
		strategy:       strategy,
		analyzer:       LambdaAnalyzer{},
		completer:      constraints.NewCompleter(),
		unitType:       types.Unit,
		completedCalls: set.New[resolve.Call](0),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = log.DefaultLogger.With("section", "inference", "session", uuid.NewString())
	return s
}

func (s *Session) Strategy() Strategy { return s.strategy }

// ShouldRunCompletion is always false: calls in a session are only ever completed together
func (s *Session) ShouldRunCompletion(*resolve.Candidate) bool {
	return false
}

func (s *Session) RecordPartiallyResolved(call resolve.Call) {
	s.partiallyResolvedCalls = append(s.partiallyResolvedCalls, call)
}

func (s *Session) RecordError(call resolve.Call) {
	s.errorCalls = append(s.errorCalls, call)
}

// RecordCompleted marks call as completed, and reports whether it already was
func (s *Session) RecordCompleted(call resolve.Call) bool {
	return !s.completedCalls.Insert(call)
}

func (s *Session) ErrorCalls() []resolve.Call {
	return slices.Clone(s.errorCalls)
}

func (s *Session) PartiallyResolvedCalls() []resolve.Call {
	return slices.Clone(s.partiallyResolvedCalls)
}

// CurrentConstraintSystem is the storage of the candidate of the last partially resolved call,
// or constraints.EmptyStorage if there is none
func (s *Session) CurrentConstraintSystem() *constraints.Storage {
	if len(s.partiallyResolvedCalls) == 0 {
		return constraints.EmptyStorage
	}
	candidate := s.partiallyResolvedCalls[len(s.partiallyResolvedCalls)-1].Candidate()
	if candidate == nil || candidate.System == nil {
		return constraints.EmptyStorage
	}
	return candidate.System.CurrentStorage()
}

// ResolveCandidates completes the partially resolved calls of s and returns them.
//
// If some but not all of the calls have constraint errors, the first call without
// errors is completed on its own, and then the first call with errors is completed
// with its variables aligned to what the good call fixed. Only those two are returned.
// Otherwise, all calls are completed together in one system.
//
// Calls are returned in the order they were recorded in, and each returned call's
// candidate holds the completed system afterwards.
// ResolveCandidates panics if a call has no candidate or is not a T.
func ResolveCandidates[T resolve.Call](s *Session) []T {
	calls := s.partiallyResolvedCalls
	for _, call := range calls {
		mustCandidate(call)
	}

	errorCount := 0
	for _, call := range calls {
		if mustCandidate(call).System.CurrentStorage().HasErrors() {
			errorCount++
		}
	}
	mixed := len(calls) > 1 && errorCount > 0 && errorCount < len(calls)
	s.logger.Debug("resolving candidates", "calls", len(calls), "withErrors", errorCount, "mixed", mixed)

	var completed []resolve.Call
	if mixed {
		completed = s.completeGoodThenBad(calls)
	} else {
		completed = s.completeTogether(calls)
	}

	result := make([]T, 0, len(completed))
	for _, call := range completed {
		t, ok := call.(T)
		if !ok {
			var zero T
			panic(fmt.Sprintf("call %v is a %T, not a %T", call.CalleeName(), call, zero))
		}
		s.logger.Debug("resolved call", "callee", call.CalleeName(), "candidate", call.Candidate())
		result = append(result, t)
	}
	return result
}

func (s *Session) completeGoodThenBad(calls []resolve.Call) []resolve.Call {
	goodIdx := slices.IndexFunc(calls, func(call resolve.Call) bool {
		return !mustCandidate(call).System.CurrentStorage().HasErrors()
	})
	badIdx := slices.IndexFunc(calls, func(call resolve.Call) bool {
		return mustCandidate(call).System.CurrentStorage().HasErrors()
	})
	good, bad := calls[goodIdx], calls[badIdx]
	s.logger.Debug("completing good candidate before bad one", "good", good.CalleeName(), "bad", bad.CalleeName())

	goodSystem := s.newSystem()
	goodSystem.AddOtherSystem(mustCandidate(good).System.CurrentStorage())
	s.runCompletion(goodSystem, []resolve.Call{good})
	mustCandidate(good).System = goodSystem

	badSystem := s.newSystem()
	badSystem.AddOtherSystem(mustCandidate(bad).System.CurrentStorage())
	for v, fixedType := range goodSystem.FixedTypeVariables() {
		if badSystem.IsNotFixed(v) {
			badSystem.AddEqualityConstraint(v, fixedType, constraints.SimplePosition{})
		}
	}
	s.runCompletion(badSystem, []resolve.Call{bad})
	mustCandidate(bad).System = badSystem

	// good then bad, unless the bad call was recorded first: results keep the recorded order
	if goodIdx < badIdx {
		return []resolve.Call{good, bad}
	}
	return []resolve.Call{bad, good}
}

func (s *Session) completeTogether(calls []resolve.Call) []resolve.Call {
	commonSystem := s.newSystem()
	commonSystem.AddOtherSystem(s.CurrentConstraintSystem())
	s.strategy.PrepareForCompletion(commonSystem.Builder(), slices.Clone(calls))
	s.runCompletion(commonSystem, calls)
	for _, call := range calls {
		mustCandidate(call).System = commonSystem
	}
	return slices.Clone(calls)
}

func (s *Session) runCompletion(system *constraints.System, calls []resolve.Call) {
	var atoms []constraints.Atom
	for _, call := range calls {
		candidate := mustCandidate(call)
		atoms = append(atoms, candidate)
		if s.strategy.ShouldCompleteResolvedSubAtomsOf(call) {
			atoms = append(atoms, candidate.SubAtoms...)
		}
	}
	s.completer.Complete(system, constraints.Full, atoms, s.unitType, func(arg *constraints.PostponedArgument) {
		s.analyzer.Analyze(system.Builder(), arg)
	})
	s.logger.Debug("completed", "storage", system.CurrentStorage())
}

func (s *Session) newSystem() *constraints.System {
	return constraints.NewSystem(s.systemOpts...)
}

func mustCandidate(call resolve.Call) *resolve.Candidate {
	candidate := call.Candidate()
	if candidate == nil || candidate.System == nil {
		panic(fmt.Sprintf("call %v was registered without a resolved candidate", call.CalleeName()))
	}
	return candidate
}
