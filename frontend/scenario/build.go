package scenario

import (
	"fmt"
	"github.com/cottand/kinfer/frontend/constraints"
	"github.com/cottand/kinfer/frontend/ilerr"
	"github.com/cottand/kinfer/frontend/inference"
	"github.com/cottand/kinfer/frontend/resolve"
	"github.com/cottand/kinfer/frontend/types"
	"github.com/pkg/errors"
	"strconv"
	"strings"
)

// Built is a scenario turned into a session with all its calls recorded
type Built struct {
	Session   *inference.Session
	Fresher   *types.Fresher
	Hierarchy *types.Hierarchy
	Functions map[string]*resolve.Function
}

// Build declares everything in s, resolves each call against its callee and
// records it in a new session, in the order the calls are listed.
//
// Each candidate's system starts from the session's current constraint system,
// so later calls see the variables and constraints of earlier ones.
func (s *Scenario) Build() (*Built, error) {
	b := &Built{
		Fresher:   types.NewFresher(),
		Hierarchy: types.NewHierarchy(),
		Functions: make(map[string]*resolve.Function, len(s.Functions)),
	}
	containers := make(map[string]resolve.Container, len(s.Classes))
	for _, class := range s.Classes {
		if _, exists := containers[class.Name]; exists {
			return nil, errors.Errorf("class %s declared twice", class.Name)
		}
		b.Hierarchy.Declare(class.Name, class.Supertypes...)
		if class.Anonymous {
			containers[class.Name] = &resolve.AnonymousObject{SyntheticName: class.Name, Supertypes: class.Supertypes}
			continue
		}
		decl := &resolve.ClassDecl{Name: class.Name, Supertypes: class.Supertypes}
		for _, name := range class.TypeParams {
			decl.TypeParams = append(decl.TypeParams, &types.Param{Name: name, Owner: class.Name})
		}
		containers[class.Name] = decl
	}
	for _, fn := range s.Functions {
		decl, err := declareFunction(fn)
		if err != nil {
			return nil, err
		}
		if _, exists := b.Functions[fn.Name]; exists {
			return nil, errors.Errorf("function %s declared twice (overloads are resolved before a session)", fn.Name)
		}
		b.Functions[fn.Name] = decl
	}

	strategy, err := s.strategy(containers)
	if err != nil {
		return nil, err
	}
	b.Session = inference.NewSession(strategy, inference.WithSystemOptions(constraints.WithHierarchy(b.Hierarchy)))

	for i, call := range s.Calls {
		resolved, err := b.resolveCall(call)
		if err != nil {
			return nil, errors.Wrapf(err, "call #%d (%s)", i, call.Callee)
		}
		if call.Failed {
			b.Session.RecordError(resolved)
			continue
		}
		b.Session.RecordPartiallyResolved(resolved)
	}
	return b, nil
}

func (s *Scenario) strategy(containers map[string]resolve.Container) (inference.Strategy, error) {
	if s.Property == nil {
		return inference.DefaultStrategy{}, nil
	}
	for _, call := range s.Calls {
		if call.Callee != resolve.GetValue && call.Callee != resolve.SetValue {
			return nil, errors.Errorf("delegated property %s can only have %s and %s calls, found %s",
				s.Property.Name, resolve.GetValue, resolve.SetValue, call.Callee)
		}
	}
	strategy := &inference.DelegatedPropertyStrategy{
		Property: &resolve.Property{Name: s.Property.Name},
	}
	if s.Property.Receiver != "" {
		receiver, err := parseType(s.Property.Receiver, noNames)
		if err != nil {
			return nil, errors.Wrap(err, "property receiver")
		}
		strategy.Property.ReceiverType = receiver
	}
	if s.Property.Expected != "" {
		expected, err := parseType(s.Property.Expected, noNames)
		if err != nil {
			return nil, errors.Wrap(err, "property expected type")
		}
		strategy.ExpectedType = expected
		strategy.Property.ReturnType = expected
	}
	if s.Property.Container != "" {
		container, ok := containers[s.Property.Container]
		if !ok {
			return nil, errors.Errorf("unknown container class %s", s.Property.Container)
		}
		strategy.Container = container
	}
	return strategy, nil
}

func declareFunction(fn Function) (*resolve.Function, error) {
	decl := &resolve.Function{Name: fn.Name, Operator: fn.Operator}
	for _, name := range fn.TypeParams {
		decl.TypeParams = append(decl.TypeParams, &types.Param{Name: name, Owner: fn.Name})
	}
	params := paramResolver(decl.TypeParams)
	for _, p := range fn.Params {
		t, err := parseType(p.Type, params)
		if err != nil {
			return nil, errors.Wrapf(err, "parameter %s of %s", p.Name, fn.Name)
		}
		decl.ValueParams = append(decl.ValueParams, resolve.ValueParam{Name: p.Name, Type: t})
	}
	if fn.Returns != "" {
		t, err := parseType(fn.Returns, params)
		if err != nil {
			return nil, errors.Wrapf(err, "return type of %s", fn.Name)
		}
		decl.ReturnType = t
	} else {
		decl.ReturnType = types.Unit
	}
	return decl, nil
}

func paramResolver(params []*types.Param) nameResolver {
	return func(name string) (types.Type, bool) {
		for _, p := range params {
			if p.Name == name {
				return p, true
			}
		}
		return nil, false
	}
}

func (b *Built) resolveCall(call Call) (*resolve.FunctionCall, error) {
	fn, ok := b.Functions[call.Callee]
	if !ok {
		return nil, errors.Errorf("unknown function %s", call.Callee)
	}
	candidate := resolve.NewCandidate(b.Fresher, fn, constraints.WithHierarchy(b.Hierarchy))
	candidate.System.AddOtherSystem(b.Session.CurrentConstraintSystem())

	// names in a call refer to the declared params, which the candidate substitutes
	params := paramResolver(fn.TypeParams)
	for i, arg := range call.Args {
		t, err := parseType(arg, params)
		if err != nil {
			return nil, errors.Wrapf(err, "argument #%d", i)
		}
		candidate.AddArgument(i, candidate.Substitutor.SubstituteOrSelf(t))
	}
	for _, c := range call.Constraints {
		if err := addConstraint(candidate, params, c); err != nil {
			return nil, err
		}
	}
	for i, lambda := range call.Lambdas {
		arg, err := postponedLambda(fmt.Sprintf("%s#lambda%d", fn.Name, i), lambda, params, candidate.Substitutor)
		if err != nil {
			return nil, errors.Wrapf(err, "lambda #%d", i)
		}
		candidate.AddPostponed(arg)
	}
	if call.Failed {
		candidate.Diagnostics = candidate.Diagnostics.With(ilerr.New(ilerr.NewInvalidScenario{
			Position: constraints.SimplePosition{},
			Message:  fmt.Sprintf("resolution of %s failed", fn.Name),
		}))
	}
	return resolve.NewFunctionCall(candidate), nil
}

func addConstraint(candidate *resolve.Candidate, params nameResolver, src string) error {
	lhs, rhs, equality, err := parseConstraint(src, params)
	if err != nil {
		return err
	}
	lhs, rhs = candidate.Substitutor.SubstituteOrSelf(lhs), candidate.Substitutor.SubstituteOrSelf(rhs)
	if equality {
		candidate.System.AddEqualityConstraint(lhs, rhs, constraints.SimplePosition{})
	} else {
		candidate.System.AddSubtypeConstraint(lhs, rhs, constraints.SimplePosition{})
	}
	return nil
}

func postponedLambda(name string, lambda Lambda, params nameResolver, sub types.Substitutor) (*constraints.PostponedArgument, error) {
	arg := &constraints.PostponedArgument{Name: name}
	for i, input := range lambda.Inputs {
		t, err := parseType(input, params)
		if err != nil {
			return nil, errors.Wrapf(err, "input #%d", i)
		}
		arg.Inputs = append(arg.Inputs, t)
	}
	if lambda.Returns != "" {
		t, err := parseType(lambda.Returns, params)
		if err != nil {
			return nil, errors.Wrap(err, "return type")
		}
		arg.Return = t
	}
	if lambda.Result == "" {
		return arg, nil
	}
	// check the result parses before completion, when errors can still be returned
	anyInputs := make([]types.Type, len(arg.Inputs))
	for i := range anyInputs {
		anyInputs[i] = types.Any
	}
	if _, err := parseType(lambda.Result, placeholderResolver(params, anyInputs)); err != nil {
		return nil, errors.Wrap(err, "result")
	}
	result := lambda.Result
	arg.Body = func(_ constraints.Builder, inputs []types.Type) types.Type {
		t, err := parseType(result, placeholderResolver(params, inputs))
		if err != nil {
			panic(fmt.Sprintf("lambda result '%s' stopped parsing: %v", result, err))
		}
		return sub.SubstituteOrSelf(t)
	}
	return arg, nil
}

// placeholderResolver resolves $i to the i-th input
func placeholderResolver(params nameResolver, inputs []types.Type) nameResolver {
	return func(name string) (types.Type, bool) {
		idx, isPlaceholder := strings.CutPrefix(name, "$")
		if !isPlaceholder {
			return params(name)
		}
		i, err := strconv.Atoi(idx)
		if err != nil || i < 0 || i >= len(inputs) {
			return nil, false
		}
		return inputs[i], true
	}
}
