// Package types defines the table, value, and coordinate model, the
// declarative rule and mapping types, the plan repository interface, and the
// standard error values for sheetplan.
//
// Tables are in-memory row/column structures of typed scalars. Rules and
// mappings are value types built through constructors that validate them
// once; the engine treats them as immutable.
package types
