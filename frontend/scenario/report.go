package scenario

import (
	"github.com/cottand/kinfer/frontend/ilerr"
	"github.com/cottand/kinfer/frontend/inference"
	"github.com/cottand/kinfer/frontend/resolve"
	"github.com/cottand/kinfer/frontend/types"
)

type FixedVariable struct {
	Param string
	Type  types.Type
	// Fixed is false when completion left the variable open
	Fixed bool
}

// CallResult is what completion decided for one call
type CallResult struct {
	Callee      string
	Variables   []FixedVariable
	Errors      []ilerr.IleError
	Diagnostics []ilerr.IleError
}

type Report struct {
	Completed []CallResult
	// Failed are the callees of calls whose resolution failed before the session
	Failed []string
}

func (r Report) HasErrors() bool {
	if len(r.Failed) > 0 {
		return true
	}
	for _, c := range r.Completed {
		if len(c.Errors) > 0 || len(c.Diagnostics) > 0 {
			return true
		}
	}
	return false
}

// Solve completes the session of b and reports the types each call's
// type parameters were fixed to
func (b *Built) Solve() Report {
	var report Report
	for _, call := range inference.ResolveCandidates[*resolve.FunctionCall](b.Session) {
		candidate := call.Candidate()
		storage := candidate.System.CurrentStorage()
		result := CallResult{
			Callee:      call.CalleeName(),
			Errors:      storage.Errors(),
			Diagnostics: candidate.Diagnostics.Errors(),
		}
		for _, v := range candidate.Variables {
			t, fixed := storage.Fixed(v)
			result.Variables = append(result.Variables, FixedVariable{Param: v.NameHint, Type: t, Fixed: fixed})
		}
		report.Completed = append(report.Completed, result)
	}
	for _, call := range b.Session.ErrorCalls() {
		report.Failed = append(report.Failed, call.CalleeName())
	}
	return report
}
