package event

import (
	"github.com/roach88/adversity/internal/predicate"
)

// Requirements holds an event's activation logic: the requirements list
// and the raw conditions, both compiled once by compile.
type Requirements struct {
	raw        []Requirement
	rawConds   []string
	reqs       predicate.AllOf
	conditions predicate.AllOf
	compiled   bool
}

func newRequirements(reqs []Requirement, conditions []string) Requirements {
	return Requirements{raw: reqs, rawConds: conditions}
}

// compile turns the raw lists into predicates. Subsequent calls are no-ops
// because the raw lists are cleared after the first.
func (r *Requirements) compile(refs predicate.Refs) []error {
	if r.compiled {
		return nil
	}

	var errs []error
	for _, req := range r.raw {
		if req.Any != nil {
			group, groupErrs := predicate.CompileAny(req.Any, refs)
			errs = append(errs, groupErrs...)
			r.reqs = append(r.reqs, group)
			continue
		}
		leaf, err := predicate.CompileLeaf(req.Expr, refs)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		r.reqs = append(r.reqs, leaf)
	}

	conds, condErrs := predicate.Compile(r.rawConds, refs)
	r.conditions = conds
	errs = append(errs, condErrs...)

	r.raw = nil
	r.rawConds = nil
	r.compiled = true
	return errs
}

// Met reports whether every requirement and condition holds in w.
// Uncompiled requirements never hold.
func (r *Requirements) Met(w *predicate.World) bool {
	if !r.compiled {
		return false
	}
	return r.reqs.Eval(w) && r.conditions.Eval(w)
}

// String describes the compiled predicates.
func (r *Requirements) String() string {
	return predicate.AllOf{r.reqs, r.conditions}.String()
}
