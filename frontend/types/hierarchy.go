package types

import (
	"github.com/hashicorp/go-set/v3"
)

// Hierarchy records the declared direct supertypes of classes by name.
// Every class is implicitly a subclass of Any.
//
// Supertypes are only tracked by name, so a generic class is only ever
// considered a subtype of another generic class if they have the same name.
type Hierarchy struct {
	supertypes map[string][]string
}

func NewHierarchy() *Hierarchy {
	return &Hierarchy{supertypes: make(map[string][]string)}
}

// Declare adds supers as direct supertypes of name
func (h *Hierarchy) Declare(name string, supers ...string) *Hierarchy {
	h.supertypes[name] = append(h.supertypes[name], supers...)
	return h
}

// IsSubclass reports whether sub is sup or transitively inherits from it
func (h *Hierarchy) IsSubclass(sub, sup string) bool {
	if sub == sup || sup == AnyName {
		return true
	}
	if h == nil {
		return false
	}
	seen := set.New[string](4)
	queue := []string{sub}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if !seen.Insert(current) {
			continue
		}
		for _, super := range h.supertypes[current] {
			if super == sup {
				return true
			}
			queue = append(queue, super)
		}
	}
	return false
}
