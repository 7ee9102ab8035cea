// Package ast defines the Abstract Syntax Tree node types for Machine
// Dialect.
//
// The AST represents the hierarchical structure of a Machine Dialect
// program after parsing. Each node type corresponds to a syntactic
// construct in the language: a backtick identifier, an underscore
// literal, a Set/If/Call/Say statement, or an Action/Interaction
// definition.
//
// Node categories:
//   - Expressions: values that can be evaluated (literals, identifier,
//     prefix/infix operators, the conditional/ternary form, call
//     arguments, grouping, error-expression).
//   - Statements: actions to be executed (Set, Return, Call, If, Block,
//     Action/Interaction definitions, Say, ExpressionStatement,
//     ErrorStatement).
//
// All nodes implement the Node interface and retain the originating
// token for diagnostics, per the source-position invariant.
package ast
