package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:     "empty",
			input:    "   ",
			expected: nil,
		},
		{
			name:  "words and operators",
			input: "population AND county",
			expected: []Token{
				{Kind: TokenTerm, Text: "population"},
				{Kind: TokenTerm, Text: "AND"},
				{Kind: TokenTerm, Text: "county"},
			},
		},
		{
			name:  "parentheses split words",
			input: "(a OR b)c",
			expected: []Token{
				{Kind: TokenLParen, Text: "("},
				{Kind: TokenTerm, Text: "a"},
				{Kind: TokenTerm, Text: "OR"},
				{Kind: TokenTerm, Text: "b"},
				{Kind: TokenRParen, Text: ")"},
				{Kind: TokenTerm, Text: "c"},
			},
		},
		{
			name:  "double quoted phrase",
			input: `"labour force" AND survey`,
			expected: []Token{
				{Kind: TokenTerm, Text: "labour force"},
				{Kind: TokenTerm, Text: "AND"},
				{Kind: TokenTerm, Text: "survey"},
			},
		},
		{
			name:  "single quoted phrase",
			input: `'census (2022)'`,
			expected: []Token{
				{Kind: TokenTerm, Text: "census (2022)"},
			},
		},
		{
			name:  "unterminated quote runs to end",
			input: `births "county of`,
			expected: []Token{
				{Kind: TokenTerm, Text: "births"},
				{Kind: TokenTerm, Text: "county of"},
			},
		},
		{
			name:  "empty quotes",
			input: `""`,
			expected: []Token{
				{Kind: TokenTerm, Text: ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Tokenize(tt.input))
		})
	}
}

func TestParseList(t *testing.T) {
	vars := []string{"statistic", "census year", "county", "sex"}

	tests := []struct {
		name  string
		query string
		items []string
		want  bool
	}{
		{name: "empty query matches", query: "", items: vars, want: true},
		{name: "single term", query: "county", items: vars, want: true},
		{name: "case insensitive", query: "COUNTY", items: []string{"County"}, want: true},
		{name: "substring of item", query: "coun", items: vars, want: true},
		{name: "missing term", query: "province", items: vars, want: false},
		{name: "and", query: "county AND sex", items: vars, want: true},
		{name: "and fails", query: "county AND age", items: vars, want: false},
		{name: "or", query: "province OR county", items: vars, want: true},
		{name: "not", query: "NOT age", items: vars, want: true},
		{name: "not fails", query: "NOT county", items: vars, want: false},
		{name: "lowercase operators", query: "county and not age", items: vars, want: true},
		{name: "precedence: and binds tighter", query: "age AND sex OR county", items: vars, want: true},
		{name: "grouping", query: "age AND (sex OR county)", items: vars, want: false},
		{name: "nested groups", query: "((county))", items: vars, want: true},
		{name: "dangling operator", query: "county AND", items: vars, want: true},
		{name: "leading operator skipped", query: "AND county", items: vars, want: true},
		{name: "unclosed group", query: "(county OR age", items: vars, want: true},
		{name: "stray close paren stops parsing", query: "county ) age", items: vars, want: true},
		{name: "empty group", query: "()", items: vars, want: false},
		{name: "close paren as term", query: ")", items: []string{"f(x)"}, want: true},
		{name: "close paren after operator", query: "county AND )", items: vars, want: false},
		{name: "or binds looser than and", query: "a OR b AND c", items: []string{"b"}, want: false},
		{name: "or with left operand", query: "a OR b AND c", items: []string{"a"}, want: true},
		{name: "empty collection", query: "county", items: nil, want: false},
		{name: "quoted phrase", query: `"census year"`, items: vars, want: true},
		{name: "double not", query: "NOT NOT county", items: vars, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseList(tt.query)(tt.items))
		})
	}
}

func TestParseText(t *testing.T) {
	tests := []struct {
		name  string
		query string
		text  string
		want  bool
	}{
		{name: "substring", query: "population", text: "Population at Each Census", want: true},
		{name: "missing text", query: "population", text: "", want: false},
		{name: "negated missing text", query: "NOT population", text: "", want: true},
		{name: "empty query", query: "", text: "", want: true},
		{name: "or", query: "births OR deaths", text: "Deaths Registered", want: true},
		{name: "and not", query: "census AND NOT 2016", text: "Census 2022 Population", want: true},
		{name: "caseless", query: "CORK", text: "Cork City", want: true},
		{name: "fada", query: "ÉIREANN", text: "Rialtas na hÉireann", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseText(tt.query)(tt.text))
		})
	}
}

func TestParseListIsTotal(t *testing.T) {
	inputs := []string{")", "(", "NOT", "AND OR NOT", `"`, `'`, "((((", "))))", "a ( b ) ) c", "NOT ( )"}
	for _, in := range inputs {
		require.NotPanics(t, func() { ParseList(in)([]string{"x"}) }, in)
		require.NotPanics(t, func() { ParseText(in)("x") }, in)
	}
}
