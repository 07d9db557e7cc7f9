// Package scenario describes a group of jointly inferred calls in YAML,
// and turns such a description into a ready inference session.
//
// A scenario looks like:
//
//	classes:
//	  - name: Foo
//	functions:
//	  - name: getValue
//	    typeParams: [T, R]
//	    params: [{name: thisRef, type: R}, {name: property, type: Any}]
//	    returns: T
//	property:
//	  name: x
//	  expected: Int
//	  container: Foo
//	calls:
//	  - callee: getValue
//	    constraints: ["T <: Int"]
//
// Types are written as `Name<Arg, ...>?`. In calls, the type parameters of
// the callee refer to the fresh variables of the call's candidate.
package scenario

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"io"
	"os"
)

type Scenario struct {
	Classes   []Class    `yaml:"classes"`
	Functions []Function `yaml:"functions"`
	// Property makes the calls the accessors of a delegated property when present
	Property *Property `yaml:"property,omitempty"`
	Calls    []Call    `yaml:"calls"`
}

type Class struct {
	Name       string   `yaml:"name"`
	TypeParams []string `yaml:"typeParams,omitempty"`
	Supertypes []string `yaml:"supertypes,omitempty"`
	// Anonymous marks an object expression rather than a named class
	Anonymous bool `yaml:"anonymous,omitempty"`
}

type Function struct {
	Name       string   `yaml:"name"`
	TypeParams []string `yaml:"typeParams,omitempty"`
	Params     []Param  `yaml:"params,omitempty"`
	Returns    string   `yaml:"returns,omitempty"`
	Operator   bool     `yaml:"operator,omitempty"`
}

type Param struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type Property struct {
	Name     string `yaml:"name"`
	Receiver string `yaml:"receiver,omitempty"`
	Expected string `yaml:"expected,omitempty"`
	// Container is the name of one of Classes
	Container string `yaml:"container,omitempty"`
}

type Call struct {
	Callee string `yaml:"callee"`
	// Args are the types of the arguments, each constrained to be a subtype of its parameter
	Args []string `yaml:"args,omitempty"`
	// Constraints are extra constraints over the callee's type parameters, as `A <: B` or `A == B`
	Constraints []string `yaml:"constraints,omitempty"`
	Lambdas     []Lambda `yaml:"lambdas,omitempty"`
	// Failed records the call as one whose resolution failed outright
	Failed bool `yaml:"failed,omitempty"`
}

// Lambda is a postponed lambda argument. Result may refer to the lambda's
// fixed input types as $0, $1, ...
type Lambda struct {
	Inputs  []string `yaml:"inputs,omitempty"`
	Returns string   `yaml:"returns,omitempty"`
	Result  string   `yaml:"result,omitempty"`
}

func Parse(r io.Reader) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, errors.Wrap(err, "could not decode scenario")
	}
	if len(s.Calls) == 0 {
		return nil, errors.New("scenario has no calls")
	}
	return &s, nil
}

func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open scenario %s", path)
	}
	defer f.Close()
	s, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "in %s", path)
	}
	return s, nil
}
