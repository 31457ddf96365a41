package predicate

import (
	"fmt"
	"log/slog"
	"strings"

	"cuelang.org/go/cue/parser"
)

// Predicate is a compiled requirement.
type Predicate interface {
	// Eval reports whether the requirement holds in w.
	Eval(w *World) bool
	String() string
}

// AllOf holds when every member holds. Empty is true.
type AllOf []Predicate

// Eval implements Predicate.
func (a AllOf) Eval(w *World) bool {
	for _, p := range a {
		if !p.Eval(w) {
			return false
		}
	}
	return true
}

func (a AllOf) String() string {
	return join("all", a)
}

// AnyOf holds when at least one member holds. Empty is false.
type AnyOf []Predicate

// Eval implements Predicate.
func (a AnyOf) Eval(w *World) bool {
	for _, p := range a {
		if p.Eval(w) {
			return true
		}
	}
	return false
}

func (a AnyOf) String() string {
	return join("any", a)
}

// Not negates its operand.
type Not struct {
	P Predicate
}

// Eval implements Predicate.
func (n Not) Eval(w *World) bool {
	return !n.P.Eval(w)
}

func (n Not) String() string {
	return "!" + n.P.String()
}

// Const is a predicate with a fixed value.
type Const bool

// Eval implements Predicate.
func (c Const) Eval(*World) bool {
	return bool(c)
}

func (c Const) String() string {
	if c {
		return "true"
	}
	return "false"
}

// Leaf is a single CUE boolean expression.
type Leaf struct {
	src  string
	refs Refs
}

// Eval implements Predicate. Evaluation errors read as false.
func (l *Leaf) Eval(w *World) bool {
	if w == nil {
		return false
	}
	ok, err := w.eval(l.src, l.refs)
	if err != nil {
		slog.Debug("requirement evaluated false", "expr", l.src, "error", err)
		return false
	}
	return ok
}

func (l *Leaf) String() string {
	return l.src
}

// CompileError reports an expression that failed to parse.
type CompileError struct {
	Expr    string
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("invalid requirement %q: %s", e.Expr, e.Message)
}

// CompileLeaf parses a single expression. refs are bound into its scope.
func CompileLeaf(expr string, refs Refs) (*Leaf, error) {
	src := strings.TrimSpace(expr)
	if src == "" {
		return nil, &CompileError{Expr: expr, Message: "empty expression"}
	}
	if _, err := parser.ParseExpr("requirement", src); err != nil {
		return nil, &CompileError{Expr: expr, Message: err.Error()}
	}
	return &Leaf{src: src, refs: refs}, nil
}

// Compile turns a list of expressions into an AllOf of leaves.
// All parse errors are returned; the predicate only contains valid leaves.
func Compile(exprs []string, refs Refs) (AllOf, []error) {
	all := make(AllOf, 0, len(exprs))
	var errs []error
	for _, expr := range exprs {
		leaf, err := CompileLeaf(expr, refs)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		all = append(all, leaf)
	}
	return all, errs
}

// CompileAny turns a list of expressions into an AnyOf of leaves.
func CompileAny(exprs []string, refs Refs) (AnyOf, []error) {
	all, errs := Compile(exprs, refs)
	return AnyOf(all), errs
}

func join(op string, ps []Predicate) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return op + "(" + strings.Join(parts, ", ") + ")"
}
