// Package resolve holds the declarations calls are resolved against, and the
// result of resolving one call against one declaration: a Candidate.
package resolve

import (
	"github.com/cottand/kinfer/frontend/types"
)

// Operator names of delegated property accessors
const (
	GetValue = "getValue"
	SetValue = "setValue"
)

// Symbol is a declaration a call can resolve to
type Symbol interface {
	SymbolName() string
}

var (
	_ Symbol = (*Function)(nil)
	_ Symbol = (*Property)(nil)

	_ Container = (*ClassDecl)(nil)
	_ Container = (*AnonymousObject)(nil)
)

type ValueParam struct {
	Name string
	Type types.Type
}

type Function struct {
	Name        string
	TypeParams  []*types.Param
	ValueParams []ValueParam
	ReturnType  types.Type
	Operator    bool
}

func (f *Function) SymbolName() string { return f.Name }

// ValueParam returns the i-th value parameter, if there is one
func (f *Function) ValueParam(i int) (ValueParam, bool) {
	if i < 0 || i >= len(f.ValueParams) {
		return ValueParam{}, false
	}
	return f.ValueParams[i], true
}

// Property is a property declaration. A property with a ReceiverType is an extension property.
type Property struct {
	Name         string
	ReceiverType types.Type // may be nil
	ReturnType   types.Type // may be nil when it has to be inferred from the delegate
}

func (p *Property) SymbolName() string { return p.Name }

// Container is the declaration a property is declared in
type Container interface {
	DefaultType() types.Type
}

type ClassDecl struct {
	Name       string
	TypeParams []*types.Param
	Supertypes []string
}

// DefaultType is the type of `this` inside the class: the class applied to its own type parameters
func (c *ClassDecl) DefaultType() types.Type {
	args := make([]types.Type, len(c.TypeParams))
	for i, p := range c.TypeParams {
		args[i] = p
	}
	return &types.Class{Name: c.Name, Args: args}
}

// AnonymousObject is an object expression; its type is only known by a synthetic name
type AnonymousObject struct {
	SyntheticName string
	Supertypes    []string
}

func (o *AnonymousObject) DefaultType() types.Type {
	return &types.Class{Name: o.SyntheticName}
}
