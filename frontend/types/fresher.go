package types

import (
	"cmp"
	"log/slog"
	"slices"
)

// Fresher keeps track of new variable IDs
// it is mutable and not suitable for concurrent use
//
// All candidates taking part in one inference session must draw their
// variables from the same Fresher, otherwise their IDs could collide once
// their systems are merged.
type Fresher struct {
	freshCount uint64
}

func NewFresher() *Fresher {
	return &Fresher{}
}

func (t *Fresher) NewVariable(nameHint string) *Variable {
	variable := &Variable{
		ID:       VarID(t.freshCount),
		NameHint: nameHint,
	}
	t.freshCount++
	return variable
}

// Substitutor replaces declared type parameters with other types,
// usually the fresh variables of a candidate
type Substitutor struct {
	mapping map[Param]Type
}

var EmptySubstitutor = Substitutor{}

func NewSubstitutor(mapping map[*Param]Type) Substitutor {
	m := make(map[Param]Type, len(mapping))
	for param, to := range mapping {
		m[*param] = to
	}
	return Substitutor{mapping: m}
}

// Freshen creates a Substitutor which maps every param to a new variable
// named after it, and returns the new variables in the order of params
func (t *Fresher) Freshen(params []*Param) (Substitutor, []*Variable) {
	mapping := make(map[*Param]Type, len(params))
	vars := make([]*Variable, 0, len(params))
	for _, param := range params {
		v := t.NewVariable(param.Name)
		mapping[param] = v
		vars = append(vars, v)
	}
	return NewSubstitutor(mapping), vars
}

// SubstituteOrSelf returns t with all known params replaced.
// t itself is returned when nothing was replaced.
func (s Substitutor) SubstituteOrSelf(t Type) Type {
	if len(s.mapping) == 0 || t == nil {
		return t
	}
	return Map(t, func(leaf Type) Type {
		if param, ok := leaf.(*Param); ok {
			if to, ok := s.mapping[*param]; ok {
				return to
			}
		}
		return leaf
	})
}

func (s Substitutor) IsEmpty() bool { return len(s.mapping) == 0 }

func (s Substitutor) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(s.mapping))
	for param, to := range s.mapping {
		attrs = append(attrs, slog.String(param.Name, to.String()))
	}
	slices.SortFunc(attrs, func(a, b slog.Attr) int {
		return cmp.Compare(a.Key, b.Key)
	})
	return slog.GroupValue(attrs...)
}
