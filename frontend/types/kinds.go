package types

import (
	"fmt"
	"hash/fnv"
	"iter"
	"strconv"
	"strings"
)

// Type is a type as seen by the constraint system: either a concrete type,
// a declared type parameter, or a type variable that is still to be fixed.
type Type interface {
	fmt.Stringer
	Hash() uint64
	isType()
}

var (
	_ Type = (*Variable)(nil)
	_ Type = (*Class)(nil)
	_ Type = (*Param)(nil)
	_ Type = Nothing{}
	_ Type = ErrorType{}
)

// VarID identifies a type variable within one Fresher
type VarID uint64

// Variable is an inference placeholder. Two variables are the same
// variable if and only if they have the same ID.
type Variable struct {
	ID       VarID
	NameHint string
}

func (*Variable) isType() {}
func (v *Variable) String() string {
	if v.NameHint == "" {
		return "α" + strconv.FormatUint(uint64(v.ID), 10)
	}
	return v.NameHint + "#" + strconv.FormatUint(uint64(v.ID), 10)
}
func (v *Variable) Hash() uint64 {
	return uint64(v.ID)*2654435761 + 7
}

// Class is a (possibly generic, possibly nullable) nominal type such as List<Int>?
type Class struct {
	Name     string
	Args     []Type
	Nullable bool
}

func (*Class) isType() {}
func (c *Class) String() string {
	sb := strings.Builder{}
	sb.WriteString(c.Name)
	if len(c.Args) > 0 {
		sb.WriteString("<")
		for i, arg := range c.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(arg.String())
		}
		sb.WriteString(">")
	}
	if c.Nullable {
		sb.WriteString("?")
	}
	return sb.String()
}

func (c *Class) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(c.Name))
	hash := h.Sum64()
	for _, arg := range c.Args {
		hash = 31*hash ^ arg.Hash()
	}
	if c.Nullable {
		hash = hash*41 + 1
	}
	return hash
}

// WithNullability returns a copy of c with the given nullability
func (c *Class) WithNullability(nullable bool) *Class {
	copied := *c
	copied.Nullable = nullable
	return &copied
}

// Param is a type parameter as written in a declaration, before substitution
type Param struct {
	Name string
	// Owner disambiguates parameters with the same name in different declarations
	Owner string
}

func (*Param) isType()          {}
func (p *Param) String() string { return p.Name }
func (p *Param) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(p.Owner))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(p.Name))
	return h.Sum64() * 53
}

// Nothing is the bottom type. Nullable Nothing is the type of null,
// and is used as the bottom sentinel where no better type is known.
type Nothing struct {
	Nullable bool
}

func (Nothing) isType() {}
func (n Nothing) String() string {
	if n.Nullable {
		return "Nothing?"
	}
	return "Nothing"
}
func (n Nothing) Hash() uint64 {
	if n.Nullable {
		return 16777619
	}
	return 1099511628211
}

// ErrorType is what a variable gets fixed to when nothing could be inferred for it
type ErrorType struct {
	Reason string
}

func (ErrorType) isType()          {}
func (e ErrorType) String() string { return "<error: " + e.Reason + ">" }
func (e ErrorType) Hash() uint64   { return 0xdeadbeef }

// AnyName is the name of the top class
const AnyName = "Any"

var (
	Any         = &Class{Name: AnyName}
	NullableAny = &Class{Name: AnyName, Nullable: true}
	Unit        = &Class{Name: "Unit"}

	NothingType         = Nothing{}
	NullableNothingType = Nothing{Nullable: true}
)

// IsNullable reports whether null is a value of t.
// Variables are considered not nullable.
func IsNullable(t Type) bool {
	switch t := t.(type) {
	case *Class:
		return t.Nullable
	case Nothing:
		return t.Nullable
	}
	return false
}

// Equivalent compares types structurally
func Equivalent(a, b Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	switch a := a.(type) {
	case *Variable:
		b, ok := b.(*Variable)
		return ok && a.ID == b.ID
	case *Param:
		b, ok := b.(*Param)
		return ok && a.Name == b.Name && a.Owner == b.Owner
	case Nothing:
		b, ok := b.(Nothing)
		return ok && a.Nullable == b.Nullable
	case ErrorType:
		_, ok := b.(ErrorType)
		return ok
	case *Class:
		b, ok := b.(*Class)
		if !ok || a.Name != b.Name || a.Nullable != b.Nullable || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !Equivalent(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	}
	panic(fmt.Sprintf("implement me for %T", a))
}

// VariablesIn yields every type variable occurring in t, in order of occurrence
func VariablesIn(t Type) iter.Seq[*Variable] {
	return func(yield func(*Variable) bool) {
		walkVariables(t, yield)
	}
}

func walkVariables(t Type, yield func(*Variable) bool) bool {
	switch t := t.(type) {
	case *Variable:
		return yield(t)
	case *Class:
		for _, arg := range t.Args {
			if !walkVariables(arg, yield) {
				return false
			}
		}
	}
	return true
}

// Map rebuilds t bottom-up, replacing every leaf with f(leaf).
// Classes are only copied when one of their arguments changed.
func Map(t Type, f func(Type) Type) Type {
	class, ok := t.(*Class)
	if !ok {
		return f(t)
	}
	var newArgs []Type
	for i, arg := range class.Args {
		mapped := Map(arg, f)
		if newArgs == nil && mapped != arg {
			newArgs = make([]Type, len(class.Args))
			copy(newArgs, class.Args[:i])
		}
		if newArgs != nil {
			newArgs[i] = mapped
		}
	}
	if newArgs == nil {
		return class
	}
	return &Class{Name: class.Name, Args: newArgs, Nullable: class.Nullable}
}
