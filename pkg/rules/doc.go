// Package rules compiles the expressions used by form definitions into
// conditions, derivations and step predicates.
//
// Expressions default to expr-lang. A "cel:" prefix selects CEL and a
// "js:" prefix selects an embedded JavaScript runtime:
//
//	plan == "pro"
//	cel: size(topics) > 0
//	js: username.toUpperCase()
//
// Every control is bound by name; groups bind as maps. Derivations also see
// "value" (the source value) and "current" (the target value).
package rules
