package search

import "strings"

// ExtractTerms returns the positive terms of query in caseless form. Operator
// keywords and parentheses are dropped, and so is the term following a NOT.
func ExtractTerms(query string) []string {
	var (
		terms   []string
		negated bool
	)
	for _, tok := range Tokenize(strings.TrimSpace(query)) {
		if tok.Kind != TokenTerm {
			continue
		}
		switch strings.ToUpper(tok.Text) {
		case "NOT":
			negated = true
			continue
		case "AND", "OR":
			continue
		}
		if negated {
			negated = false
			continue
		}
		terms = append(terms, fold(tok.Text))
	}
	return terms
}

// CountMatchingTerms counts how many of terms occur in text, ignoring case.
func CountMatchingTerms(text string, terms []string) int {
	if text == "" || len(terms) == 0 {
		return 0
	}
	haystack := fold(text)
	n := 0
	for _, term := range terms {
		if strings.Contains(haystack, fold(term)) {
			n++
		}
	}
	return n
}
