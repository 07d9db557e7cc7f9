package constraints

import (
	"cmp"
	"fmt"
	"github.com/benbjohnson/immutable"
	"github.com/cottand/kinfer/frontend/ilerr"
	"github.com/cottand/kinfer/frontend/types"
	"iter"
	"log/slog"
	"slices"
)

// Bound is one side of a constraint on a variable, together with where it came from
type Bound struct {
	Type     types.Type
	Position ilerr.Position
	// Equality is set when the bound comes from an equality constraint on the variable itself
	Equality bool
}

// VariableWithConstraints is a not-yet-fixed variable and everything known about it
type VariableWithConstraints struct {
	Variable *types.Variable
	Lower    []Bound
	Upper    []Bound
}

func (v VariableWithConstraints) withBound(b Bound, upper bool) (VariableWithConstraints, bool) {
	existing := v.Lower
	if upper {
		existing = v.Upper
	}
	var added []Bound
	if i := slices.IndexFunc(existing, func(other Bound) bool { return types.Equivalent(other.Type, b.Type) }); i >= 0 {
		if existing[i].Equality || !b.Equality {
			return v, false
		}
		// the same bound again, now known to be an equality
		added = slices.Clone(existing)
		added[i].Equality = true
	} else {
		// clip so the previous value never sees the new bound
		added = append(slices.Clip(existing), b)
	}
	if upper {
		v.Upper = added
	} else {
		v.Lower = added
	}
	return v, true
}

type FixedVariable struct {
	Variable *types.Variable
	Type     types.Type
}

type ConstraintKind int

const (
	Subtype ConstraintKind = iota
	Equality
)

// Constraint is a constraint as it was originally added to a system,
// before any incorporation. For Subtype, Lower <: Upper.
type Constraint struct {
	Kind     ConstraintKind
	Lower    types.Type
	Upper    types.Type
	Position ilerr.Position
}

func (c Constraint) String() string {
	op := "<:"
	if c.Kind == Equality {
		op = "=="
	}
	return fmt.Sprintf("%v %s %v", c.Lower, op, c.Upper)
}

type varIDComparer struct{}

func (varIDComparer) Compare(a, b types.VarID) int { return cmp.Compare(a, b) }

func newVarMap[V any]() *immutable.SortedMap[types.VarID, V] {
	return immutable.NewSortedMap[types.VarID, V](varIDComparer{})
}

// Storage is an immutable snapshot of a System.
// Variables iterate in the order they were created in.
type Storage struct {
	notFixed *immutable.SortedMap[types.VarID, VariableWithConstraints]
	fixed    *immutable.SortedMap[types.VarID, FixedVariable]
	initial  []Constraint
	errors   []ilerr.IleError
}

// EmptyStorage is the storage of a system nothing has been added to
var EmptyStorage = &Storage{
	notFixed: newVarMap[VariableWithConstraints](),
	fixed:    newVarMap[FixedVariable](),
}

func (s *Storage) IsEmpty() bool {
	return s.notFixed.Len() == 0 && s.fixed.Len() == 0 && len(s.initial) == 0 && len(s.errors) == 0
}

func (s *Storage) Errors() []ilerr.IleError {
	return slices.Clip(s.errors)
}

func (s *Storage) HasErrors() bool {
	return len(s.errors) > 0
}

func (s *Storage) InitialConstraints() []Constraint {
	return slices.Clip(s.initial)
}

// FixedTypeVariables yields every fixed variable and the type it was fixed to
func (s *Storage) FixedTypeVariables() iter.Seq2[*types.Variable, types.Type] {
	return func(yield func(*types.Variable, types.Type) bool) {
		for _, fixed := range entries(s.fixed) {
			if !yield(fixed.Variable, fixed.Type) {
				return
			}
		}
	}
}

func (s *Storage) NotFixedTypeVariables() iter.Seq[VariableWithConstraints] {
	return func(yield func(VariableWithConstraints) bool) {
		for _, v := range entries(s.notFixed) {
			if !yield(v) {
				return
			}
		}
	}
}

func (s *Storage) Fixed(v *types.Variable) (types.Type, bool) {
	fixed, ok := s.fixed.Get(v.ID)
	return fixed.Type, ok
}

func (s *Storage) NotFixed(v *types.Variable) (VariableWithConstraints, bool) {
	return s.notFixed.Get(v.ID)
}

func (s *Storage) FixedCount() int    { return s.fixed.Len() }
func (s *Storage) NotFixedCount() int { return s.notFixed.Len() }

func (s *Storage) LogValue() slog.Value {
	var fixed []slog.Attr
	for v, t := range s.FixedTypeVariables() {
		fixed = append(fixed, slog.String(v.String(), t.String()))
	}
	var notFixed []string
	for v := range s.NotFixedTypeVariables() {
		notFixed = append(notFixed, v.Variable.String())
	}
	return slog.GroupValue(
		slog.Attr{Key: "fixed", Value: slog.GroupValue(fixed...)},
		slog.Any("notFixed", notFixed),
		slog.Int("errors", len(s.errors)),
	)
}

func entries[K, V any](m *immutable.SortedMap[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		itr := m.Iterator()
		for !itr.Done() {
			k, v, ok := itr.Next()
			if !ok || !yield(k, v) {
				return
			}
		}
	}
}
