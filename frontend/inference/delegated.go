package inference

import (
	"fmt"
	"github.com/cottand/kinfer/frontend/constraints"
	"github.com/cottand/kinfer/frontend/resolve"
	"github.com/cottand/kinfer/frontend/types"
)

// DelegatedPropertyStrategy is used for the getValue/setValue calls of a
// property delegate. It ties the type of the delegate's owner and the
// property's expected type into the completion of the accessor calls, so that
// type variables of a generic delegate get fixed from where the delegate is used.
type DelegatedPropertyStrategy struct {
	Property *resolve.Property
	// ExpectedType may be nil if the property has no declared type
	ExpectedType types.Type
	// Container is the class or object the property is declared in; may be nil
	Container resolve.Container
}

var _ Strategy = (*DelegatedPropertyStrategy)(nil)

// PrepareForCompletion panics if a call is not a getValue or setValue call
func (d *DelegatedPropertyStrategy) PrepareForCompletion(b constraints.Builder, calls []resolve.Call) {
	for _, call := range calls {
		candidate := mustCandidate(call)
		switch call.CalleeName() {
		case resolve.GetValue:
			d.addConstraintsForGetValue(b, candidate)
		case resolve.SetValue:
			d.addConstraintsForSetValue(b, candidate)
		default:
			panic(fmt.Sprintf("unexpected call '%s' in delegated property '%s'", call.CalleeName(), d.propertyName()))
		}
	}
}

func (d *DelegatedPropertyStrategy) ShouldCompleteResolvedSubAtomsOf(resolve.Call) bool { return true }

func (d *DelegatedPropertyStrategy) addConstraintsForGetValue(b constraints.Builder, candidate *resolve.Candidate) {
	if fn, ok := candidate.Function(); ok && d.ExpectedType != nil && fn.ReturnType != nil {
		returnType := candidate.Substitutor.SubstituteOrSelf(fn.ReturnType)
		b.AddSubtypeConstraint(returnType, d.ExpectedType, constraints.ExpectedTypePosition{Call: fn.Name})
	}
	d.addConstraintForThis(b, candidate)
}

// the assigned value is the third parameter: (thisRef, property, value)
func (d *DelegatedPropertyStrategy) addConstraintsForSetValue(b constraints.Builder, candidate *resolve.Candidate) {
	if fn, ok := candidate.Function(); ok && d.ExpectedType != nil {
		if valueParam, ok := fn.ValueParam(2); ok {
			valueType := candidate.Substitutor.SubstituteOrSelf(valueParam.Type)
			b.AddSubtypeConstraint(valueType, d.ExpectedType, constraints.ExpectedTypePosition{Call: fn.Name})
		}
	}
	d.addConstraintForThis(b, candidate)
}

func (d *DelegatedPropertyStrategy) addConstraintForThis(b constraints.Builder, candidate *resolve.Candidate) {
	fn, ok := candidate.Function()
	if !ok {
		return
	}
	thisParam, ok := fn.ValueParam(0)
	if !ok {
		return
	}
	paramType := candidate.Substitutor.SubstituteOrSelf(thisParam.Type)
	b.AddSubtypeConstraint(d.typeOfThis(), paramType, constraints.ReceiverPosition{Call: fn.Name})
}

// typeOfThis is the explicit receiver of the property, else the type of its
// container, else Nothing?
func (d *DelegatedPropertyStrategy) typeOfThis() types.Type {
	if d.Property != nil && d.Property.ReceiverType != nil {
		return d.Property.ReceiverType
	}
	if d.Container != nil {
		return d.Container.DefaultType()
	}
	return types.NullableNothingType
}

func (d *DelegatedPropertyStrategy) propertyName() string {
	if d.Property == nil {
		return "<anonymous>"
	}
	return d.Property.Name
}
