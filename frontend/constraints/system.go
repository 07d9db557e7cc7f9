package constraints

import (
	"encoding/binary"
	"github.com/benbjohnson/immutable"
	"github.com/cottand/kinfer/frontend/ilerr"
	"github.com/cottand/kinfer/frontend/types"
	"github.com/cottand/kinfer/internal/log"
	"github.com/cottand/kinfer/util"
	"github.com/hashicorp/go-set/v3"
	"hash/fnv"
	"iter"
	"log/slog"
	"slices"
)

// Builder is the part of a System that code outside the solver may use
// to add constraints while the system is being built or completed
type Builder interface {
	AddSubtypeConstraint(sub, sup types.Type, pos ilerr.Position)
	AddEqualityConstraint(a, b types.Type, pos ilerr.Position)
	RegisterVariable(v *types.Variable)
	// Substitute replaces every fixed variable in t with its fixed type
	Substitute(t types.Type) types.Type
	HasContradiction() bool
}

var _ Builder = (*System)(nil)

// constraintPair holds a pair of types being constrained.
type constraintPair struct {
	lhs types.Type
	rhs types.Type
}

func (p *constraintPair) Hash() uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], p.lhs.Hash())
	binary.LittleEndian.PutUint64(buf[8:], p.rhs.Hash())
	h := fnv.New64a()
	_, _ = h.Write(buf[:])
	return h.Sum64()
}

// System is a mutable constraint system. It is not safe for concurrent use.
//
// Its state is kept in persistent maps so that CurrentStorage is cheap
// and the returned snapshots are never affected by later changes.
type System struct {
	notFixed *immutable.SortedMap[types.VarID, VariableWithConstraints]
	fixed    *immutable.SortedMap[types.VarID, FixedVariable]
	initial  []Constraint
	errors   []ilerr.IleError

	hierarchy *types.Hierarchy
	// cache holds the (substituted) pairs already incorporated, to stop cycles between variables
	cache  *set.HashSet[*constraintPair, uint64]
	logger *slog.Logger
}

type Option func(*System)

func WithHierarchy(h *types.Hierarchy) Option {
	return func(s *System) { s.hierarchy = h }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *System) { s.logger = logger }
}

// NewSystem creates an empty constraint system
func NewSystem(opts ...Option) *System {
	s := &System{
		notFixed: newVarMap[VariableWithConstraints](),
		fixed:    newVarMap[FixedVariable](),
		cache:    set.NewHashSet[*constraintPair, uint64](0),
		logger:   log.DefaultLogger.With("section", "constraints"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *System) Builder() Builder { return s }

func (s *System) Hierarchy() *types.Hierarchy { return s.hierarchy }

// CurrentStorage returns a snapshot of the system
func (s *System) CurrentStorage() *Storage {
	return &Storage{
		notFixed: s.notFixed,
		fixed:    s.fixed,
		initial:  slices.Clip(s.initial),
		errors:   slices.Clip(s.errors),
	}
}

func (s *System) FixedTypeVariables() iter.Seq2[*types.Variable, types.Type] {
	return s.CurrentStorage().FixedTypeVariables()
}

func (s *System) NotFixedTypeVariables() iter.Seq[VariableWithConstraints] {
	return s.CurrentStorage().NotFixedTypeVariables()
}

func (s *System) IsNotFixed(v *types.Variable) bool {
	_, ok := s.notFixed.Get(v.ID)
	return ok
}

func (s *System) HasContradiction() bool {
	return len(s.errors) > 0
}

func (s *System) Errors() []ilerr.IleError {
	return slices.Clip(s.errors)
}

// AddOtherSystem copies everything in storage into s. Variables known to both
// get the union of their bounds. Constraints are not re-incorporated.
func (s *System) AddOtherSystem(storage *Storage) {
	if storage == nil {
		return
	}
	for id, other := range entries(storage.notFixed) {
		if _, isFixed := s.fixed.Get(id); isFixed {
			continue
		}
		current, ok := s.notFixed.Get(id)
		if !ok {
			s.notFixed = s.notFixed.Set(id, other)
			continue
		}
		for _, b := range other.Lower {
			current, _ = current.withBound(b, false)
		}
		for _, b := range other.Upper {
			current, _ = current.withBound(b, true)
		}
		s.notFixed = s.notFixed.Set(id, current)
	}
	for id, fixed := range entries(storage.fixed) {
		if previous, ok := s.fixed.Get(id); ok {
			if !types.Equivalent(previous.Type, fixed.Type) {
				s.report(ilerr.New(ilerr.NewContradictoryFixation{
					Position: FixVariablePosition{Variable: fixed.Variable},
					Variable: fixed.Variable,
					Previous: previous.Type,
					New:      fixed.Type,
				}))
			}
			continue
		}
		s.notFixed = s.notFixed.Delete(id)
		s.fixed = s.fixed.Set(id, fixed)
	}
	s.initial = append(s.initial, storage.initial...)
	s.errors = append(s.errors, storage.errors...)
}

// RegisterVariable makes v known to the system as a not-yet-fixed variable.
// Registering a known variable does nothing.
func (s *System) RegisterVariable(v *types.Variable) {
	if _, ok := s.fixed.Get(v.ID); ok {
		return
	}
	if _, ok := s.notFixed.Get(v.ID); ok {
		return
	}
	s.notFixed = s.notFixed.Set(v.ID, VariableWithConstraints{Variable: v})
}

func (s *System) AddSubtypeConstraint(sub, sup types.Type, pos ilerr.Position) {
	s.initial = append(s.initial, Constraint{Kind: Subtype, Lower: sub, Upper: sup, Position: pos})
	s.registerVariablesIn(sub, sup)
	s.logger.Debug("adding subtype constraint", "sub", sub, "sup", sup)
	s.addSubtype(sub, sup, pos)
}

func (s *System) AddEqualityConstraint(a, b types.Type, pos ilerr.Position) {
	s.initial = append(s.initial, Constraint{Kind: Equality, Lower: a, Upper: b, Position: pos})
	s.registerVariablesIn(a, b)
	s.logger.Debug("adding equality constraint", "a", a, "b", b)
	s.markEquality(a, b, pos)
	s.markEquality(b, a, pos)
	s.addSubtype(a, b, pos)
	s.addSubtype(b, a, pos)
}

// markEquality records t as an equality bound of v, when v is a not fixed variable
func (s *System) markEquality(v, t types.Type, pos ilerr.Position) {
	withConstraints, ok := s.notFixedVariable(s.Substitute(v))
	if !ok {
		return
	}
	s.addBound(withConstraints.Variable, Bound{Type: s.Substitute(t), Position: pos, Equality: true}, false)
}

// Fix fixes v to t, checking t against all bounds of v
func (s *System) Fix(v *types.Variable, t types.Type, pos ilerr.Position) {
	if previous, ok := s.fixed.Get(v.ID); ok {
		if !types.Equivalent(previous.Type, t) {
			s.report(ilerr.New(ilerr.NewContradictoryFixation{
				Position: pos,
				Variable: v,
				Previous: previous.Type,
				New:      t,
			}))
		}
		return
	}
	t = s.Substitute(t)
	withConstraints, _ := s.notFixed.Get(v.ID)
	s.notFixed = s.notFixed.Delete(v.ID)
	s.fixed = s.fixed.Set(v.ID, FixedVariable{Variable: v, Type: t})
	s.logger.Debug("fixed variable", "variable", v, "to", t)

	for _, lower := range withConstraints.Lower {
		s.addSubtype(lower.Type, t, lower.Position)
	}
	for _, upper := range withConstraints.Upper {
		s.addSubtype(t, upper.Type, upper.Position)
	}
}

// Substitute replaces every fixed variable in t with its fixed type
func (s *System) Substitute(t types.Type) types.Type {
	if t == nil || s.fixed.Len() == 0 {
		return t
	}
	return types.Map(t, func(leaf types.Type) types.Type {
		if v, ok := leaf.(*types.Variable); ok {
			if fixed, ok := s.fixed.Get(v.ID); ok {
				return fixed.Type
			}
		}
		return leaf
	})
}

// IsProper reports whether t mentions no variable that is still to be fixed
func (s *System) IsProper(t types.Type) bool {
	for v := range types.VariablesIn(t) {
		if s.IsNotFixed(v) {
			return false
		}
	}
	return true
}

func (s *System) report(err ilerr.IleError) {
	s.logger.Debug("constraint error", "error", err.Error())
	s.errors = append(s.errors, err)
}

func (s *System) registerVariablesIn(ts ...types.Type) {
	for v := range util.FlatMap(ts, types.VariablesIn) {
		s.RegisterVariable(v)
	}
}

func (s *System) notFixedVariable(t types.Type) (VariableWithConstraints, bool) {
	v, ok := t.(*types.Variable)
	if !ok {
		return VariableWithConstraints{}, false
	}
	return s.notFixed.Get(v.ID)
}

func (s *System) addBound(v *types.Variable, b Bound, upper bool) {
	current, ok := s.notFixed.Get(v.ID)
	if !ok {
		return
	}
	updated, added := current.withBound(b, upper)
	if added {
		s.notFixed = s.notFixed.Set(v.ID, updated)
	}
}

// addSubtype incorporates sub <: sup into the system
func (s *System) addSubtype(sub, sup types.Type, pos ilerr.Position) {
	sub, sup = s.Substitute(sub), s.Substitute(sup)
	if types.Equivalent(sub, sup) {
		return
	}
	if !s.cache.Insert(&constraintPair{lhs: sub, rhs: sup}) {
		return
	}

	subVar, subIsVar := s.notFixedVariable(sub)
	supVar, supIsVar := s.notFixedVariable(sup)

	if subIsVar {
		s.addBound(subVar.Variable, Bound{Type: sup, Position: pos}, true)
		for _, lower := range subVar.Lower {
			s.addSubtype(lower.Type, sup, pos)
		}
	}
	if supIsVar {
		s.addBound(supVar.Variable, Bound{Type: sub, Position: pos}, false)
		for _, upper := range supVar.Upper {
			s.addSubtype(sub, upper.Type, pos)
		}
	}
	if subIsVar || supIsVar {
		return
	}
	s.constrainProper(sub, sup, pos)
}

// constrainProper handles sub <: sup where neither side is itself a variable,
// although type arguments may still be
func (s *System) constrainProper(sub, sup types.Type, pos ilerr.Position) {
	subClass, subIsClass := sub.(*types.Class)
	supClass, supIsClass := sup.(*types.Class)
	if subIsClass && supIsClass && subClass.Name == supClass.Name {
		if subClass.Nullable && !supClass.Nullable {
			s.report(ilerr.New(ilerr.NewNullabilityMismatch{Position: pos, Lower: sub, Upper: sup}))
		}
		if len(subClass.Args) != len(supClass.Args) {
			s.report(ilerr.New(ilerr.NewTypeMismatch{Position: pos, Lower: sub, Upper: sup, Reason: "different number of type arguments"}))
			return
		}
		// type arguments are invariant
		for i := range subClass.Args {
			s.addSubtype(subClass.Args[i], supClass.Args[i], pos)
			s.addSubtype(supClass.Args[i], subClass.Args[i], pos)
		}
		return
	}
	switch checkSubtype(s.hierarchy, sub, sup) {
	case subtypeOk:
	case subtypeNullability:
		s.report(ilerr.New(ilerr.NewNullabilityMismatch{Position: pos, Lower: sub, Upper: sup}))
	default:
		s.report(ilerr.New(ilerr.NewTypeMismatch{Position: pos, Lower: sub, Upper: sup}))
	}
}
