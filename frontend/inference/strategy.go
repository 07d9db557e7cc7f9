package inference

import (
	"github.com/cottand/kinfer/frontend/constraints"
	"github.com/cottand/kinfer/frontend/resolve"
)

// Strategy lets a kind of call group add its own constraints to the merged
// system before completion runs. It is chosen when the Session is created.
//
// Strategies only ever touch the builder they are given, never the session.
type Strategy interface {
	PrepareForCompletion(b constraints.Builder, calls []resolve.Call)
	// ShouldCompleteResolvedSubAtomsOf decides whether the already resolved
	// nested atoms of call take part in completion too
	ShouldCompleteResolvedSubAtomsOf(call resolve.Call) bool
}

// DefaultStrategy is used for groups of calls that are only related by
// sharing postponed arguments, such as ordinary overloaded calls
type DefaultStrategy struct{}

var _ Strategy = DefaultStrategy{}

func (DefaultStrategy) PrepareForCompletion(constraints.Builder, []resolve.Call) {}

func (DefaultStrategy) ShouldCompleteResolvedSubAtomsOf(resolve.Call) bool { return false }
