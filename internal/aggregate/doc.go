// Package aggregate turns backlog records into scored rows.
//
// A row carries one vote column per roster participant. Its average is defined only
// when every participant has voted. Rows can be filtered with composable predicates
// and ranked for a movie night. Nothing in this package mutates the input records.
package aggregate
