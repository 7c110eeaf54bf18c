// Package search implements the query primitives behind catalogue search:
// a permissive boolean expression language over text and collections of
// text, relevance term extraction, and calendar-period date parsing with
// inclusive range matching.
//
// Expressions combine terms with AND, OR and NOT (case-insensitive) and
// parentheses. Terms may be quoted to include spaces. Malformed expressions
// never fail; they degrade to the most permissive reading.
//
//	match := search.ParseList("county AND NOT sex")
//	match([]string{"Statistic", "County", "Census Year"}) // true
package search
