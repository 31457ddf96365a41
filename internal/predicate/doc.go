// Package predicate compiles requirement expressions into boolean predicates.
//
// Requirement strings are CUE expressions evaluated against a World: a
// snapshot of facts about the subject and its surroundings, e.g.
//
//	player.naked && location == "town"
//	player.arousal > 50
//
// Expressions are parsed once at compile time; syntax errors surface as
// compile errors. At evaluation time every failure (unresolved reference,
// non-boolean result, incomplete value) reads as false, never as an error.
//
// Compiled predicates form a small tree of AllOf, AnyOf, Not and Leaf
// nodes. An empty AllOf is true; an empty AnyOf is false.
package predicate
