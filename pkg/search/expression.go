package search

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"golang.org/x/text/cases"
)

// TokenKind classifies a token produced by Tokenize.
type TokenKind int

const (
	TokenTerm TokenKind = iota
	TokenLParen
	TokenRParen
)

// Token is a single lexical unit of a search expression. Operator keywords
// (AND, OR, NOT) are TokenTerm tokens; the parser recognises them by text.
type Token struct {
	Kind TokenKind
	Text string
}

var exprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Quoted", Pattern: `"[^"]*"?|'[^']*'?`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "Word", Pattern: `[^\s()'"]+`},
	{Name: "whitespace", Pattern: `\s+`},
})

// Tokenize splits query into terms and parentheses. Quoted text (single or
// double quotes) becomes one term with the quotes removed; an unterminated
// quote runs to the end of the input.
func Tokenize(query string) []Token {
	lex, err := exprLexer.LexString("", query)
	if err != nil {
		return fieldTokens(query)
	}
	raw, err := lexer.ConsumeAll(lex)
	if err != nil {
		return fieldTokens(query)
	}

	symbols := exprLexer.Symbols()
	var tokens []Token
	for _, tok := range raw {
		switch tok.Type {
		case symbols["LParen"]:
			tokens = append(tokens, Token{Kind: TokenLParen, Text: "("})
		case symbols["RParen"]:
			tokens = append(tokens, Token{Kind: TokenRParen, Text: ")"})
		case symbols["Quoted"]:
			tokens = append(tokens, Token{Kind: TokenTerm, Text: unquote(tok.Value)})
		case symbols["Word"]:
			tokens = append(tokens, Token{Kind: TokenTerm, Text: tok.Value})
		}
	}
	return tokens
}

func unquote(s string) string {
	quote := s[0]
	inner := s[1:]
	if len(inner) > 0 && inner[len(inner)-1] == quote {
		inner = inner[:len(inner)-1]
	}
	return inner
}

func fieldTokens(query string) []Token {
	var tokens []Token
	for _, f := range strings.Fields(query) {
		tokens = append(tokens, Token{Kind: TokenTerm, Text: f})
	}
	return tokens
}

// Predicate reports whether a value satisfies a compiled expression.
type Predicate[T any] func(T) bool

func always[T any](T) bool { return true }

// ParseList compiles query for collection mode: a term matches when it is a
// case-insensitive substring of any item. An empty query matches everything.
func ParseList(query string) Predicate[[]string] {
	return compile(query, func(term string) Predicate[[]string] {
		needle := fold(term)
		return func(items []string) bool {
			for _, item := range items {
				if strings.Contains(fold(item), needle) {
					return true
				}
			}
			return false
		}
	})
}

// ParseText compiles query for single-string mode: a term matches when it is
// a case-insensitive substring of the text. Empty text is treated as missing
// and matches no term.
func ParseText(query string) Predicate[string] {
	return compile(query, func(term string) Predicate[string] {
		needle := fold(term)
		return func(text string) bool {
			if text == "" {
				return false
			}
			return strings.Contains(fold(text), needle)
		}
	})
}

func compile[T any](query string, leaf func(string) Predicate[T]) Predicate[T] {
	tokens := Tokenize(strings.TrimSpace(query))
	if len(tokens) == 0 {
		return always[T]
	}
	p := &parser[T]{tokens: tokens, leaf: leaf}
	return p.parseOr()
}

// parser is a recursive-descent parser over a token slice:
//
//	Or      := And ("OR" And)*
//	And     := Not ("AND" Not)*
//	Not     := "NOT" Primary | Primary
//	Primary := TERM | "(" Or ")"
//
// A ")" where a primary is expected is read as a search term.
// It never fails; malformed input degrades to the most permissive reading.
type parser[T any] struct {
	tokens []Token
	pos    int
	leaf   func(string) Predicate[T]
}

func (p *parser[T]) keyword(kw string) bool {
	if p.pos >= len(p.tokens) {
		return false
	}
	tok := p.tokens[p.pos]
	return tok.Kind == TokenTerm && strings.EqualFold(tok.Text, kw)
}

func (p *parser[T]) parseOr() Predicate[T] {
	left := p.parseAnd()
	for p.keyword("OR") {
		p.pos++
		l, r := left, p.parseAnd()
		left = func(v T) bool { return l(v) || r(v) }
	}
	return left
}

func (p *parser[T]) parseAnd() Predicate[T] {
	left := p.parseNot()
	for p.keyword("AND") {
		p.pos++
		l, r := left, p.parseNot()
		left = func(v T) bool { return l(v) && r(v) }
	}
	return left
}

func (p *parser[T]) parseNot() Predicate[T] {
	if p.keyword("NOT") {
		p.pos++
		inner := p.parsePrimary()
		return func(v T) bool { return !inner(v) }
	}
	return p.parsePrimary()
}

func (p *parser[T]) parsePrimary() Predicate[T] {
	if p.pos >= len(p.tokens) {
		return always[T]
	}
	tok := p.tokens[p.pos]
	switch {
	case tok.Kind == TokenLParen:
		p.pos++
		inner := p.parseOr()
		if p.pos < len(p.tokens) && p.tokens[p.pos].Kind == TokenRParen {
			p.pos++
		}
		return inner
	case p.keyword("AND"), p.keyword("OR"), p.keyword("NOT"):
		p.pos++
		return p.parsePrimary()
	default:
		p.pos++
		return p.leaf(tok.Text)
	}
}

// fold returns the caseless form of s. A new caser is created per call since
// cases.Caser is not safe for concurrent use.
func fold(s string) string {
	return cases.Fold().String(s)
}
