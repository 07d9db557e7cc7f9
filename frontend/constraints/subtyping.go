package constraints

import (
	"github.com/cottand/kinfer/frontend/types"
)

type subtypeResult int

const (
	subtypeOk subtypeResult = iota
	subtypeNullability
	subtypeMismatch
)

// checkSubtype decides sub <: sup for types without unfixed variables.
// Variables that are still present are only equal to themselves.
func checkSubtype(h *types.Hierarchy, sub, sup types.Type) subtypeResult {
	if types.Equivalent(sub, sup) {
		return subtypeOk
	}
	// errors have already been reported where the error type was introduced
	if _, ok := sub.(types.ErrorType); ok {
		return subtypeOk
	}
	if _, ok := sup.(types.ErrorType); ok {
		return subtypeOk
	}

	if nothing, ok := sub.(types.Nothing); ok {
		if !nothing.Nullable || types.IsNullable(sup) {
			return subtypeOk
		}
		return subtypeNullability
	}

	subClass, subIsClass := sub.(*types.Class)
	supClass, supIsClass := sup.(*types.Class)
	if !subIsClass || !supIsClass {
		return subtypeMismatch
	}

	nameOk := false
	switch {
	case supClass.Name == types.AnyName:
		nameOk = true
	case subClass.Name == supClass.Name:
		nameOk = len(subClass.Args) == len(supClass.Args)
		for i := 0; nameOk && i < len(subClass.Args); i++ {
			nameOk = isSubtype(h, subClass.Args[i], supClass.Args[i]) && isSubtype(h, supClass.Args[i], subClass.Args[i])
		}
	default:
		nameOk = len(supClass.Args) == 0 && h.IsSubclass(subClass.Name, supClass.Name)
	}
	if !nameOk {
		return subtypeMismatch
	}
	if subClass.Nullable && !supClass.Nullable {
		return subtypeNullability
	}
	return subtypeOk
}

func isSubtype(h *types.Hierarchy, sub, sup types.Type) bool {
	return checkSubtype(h, sub, sup) == subtypeOk
}

// greatest returns the element of ts which every other element is a subtype of
func greatest(h *types.Hierarchy, ts []types.Type) (types.Type, bool) {
	for _, candidate := range ts {
		all := true
		for _, other := range ts {
			if !isSubtype(h, other, candidate) {
				all = false
				break
			}
		}
		if all {
			return candidate, true
		}
	}
	return nil, false
}

// least returns the element of ts which is a subtype of every other element
func least(h *types.Hierarchy, ts []types.Type) (types.Type, bool) {
	for _, candidate := range ts {
		all := true
		for _, other := range ts {
			if !isSubtype(h, candidate, other) {
				all = false
				break
			}
		}
		if all {
			return candidate, true
		}
	}
	return nil, false
}

// commonSupertype picks a type all of ts are subtypes of. When none of ts
// qualifies, it falls back to Any with the nullability of ts.
func commonSupertype(h *types.Hierarchy, ts []types.Type) types.Type {
	if found, ok := greatest(h, ts); ok {
		return found
	}
	for _, t := range ts {
		if types.IsNullable(t) {
			return types.NullableAny
		}
	}
	return types.Any
}
