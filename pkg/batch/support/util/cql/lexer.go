package cql

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokKeyword
	tokOperator
	tokLParen
	tokRParen
	tokComma
)

var keywords = map[string]bool{
	"AND": true, "OR": true, "NOT": true,
	"LIKE": true, "ILIKE": true, "IN": true,
	"IS": true, "NULL": true, "BETWEEN": true,
	"INCLUDE": true, "EXCLUDE": true,
	"TRUE": true, "FALSE": true,
}

type token struct {
	kind tokenKind
	text string // keywords are upper-cased, strings are unquoted
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return fmt.Sprintf("'%s'", t.text)
}

// SyntaxError reports a malformed filter expression.
type SyntaxError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("cql: %s at position %d in %q", e.Msg, e.Pos, e.Input)
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	runes := []rune(input)
	i := 0
	fail := func(pos int, format string, args ...interface{}) error {
		return &SyntaxError{Input: input, Pos: pos, Msg: fmt.Sprintf(format, args...)}
	}

	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")", pos: i})
			i++
		case r == ',':
			tokens = append(tokens, token{kind: tokComma, text: ",", pos: i})
			i++
		case r == '\'':
			start := i
			var sb strings.Builder
			i++
			closed := false
			for i < len(runes) {
				if runes[i] == '\'' {
					if i+1 < len(runes) && runes[i+1] == '\'' {
						sb.WriteRune('\'')
						i += 2
						continue
					}
					closed = true
					i++
					break
				}
				sb.WriteRune(runes[i])
				i++
			}
			if !closed {
				return nil, fail(start, "unterminated string literal")
			}
			tokens = append(tokens, token{kind: tokString, text: sb.String(), pos: start})
		case r == '"':
			start := i
			i++
			j := i
			for j < len(runes) && runes[j] != '"' {
				j++
			}
			if j >= len(runes) {
				return nil, fail(start, "unterminated quoted identifier")
			}
			tokens = append(tokens, token{kind: tokIdent, text: string(runes[i:j]), pos: start})
			i = j + 1
		case r == '=':
			tokens = append(tokens, token{kind: tokOperator, text: "=", pos: i})
			i++
		case r == '<' || r == '>' || r == '!':
			start := i
			op := string(r)
			if i+1 < len(runes) && (runes[i+1] == '=' || (r == '<' && runes[i+1] == '>')) {
				op += string(runes[i+1])
				i++
			}
			i++
			if op == "!" {
				return nil, fail(start, "unexpected character '!'")
			}
			tokens = append(tokens, token{kind: tokOperator, text: op, pos: start})
		case unicode.IsDigit(r) || (r == '-' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			start := i
			i++
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			tokens = append(tokens, token{kind: tokNumber, text: string(runes[start:i]), pos: start})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && isIdentRune(runes[i]) {
				i++
			}
			word := string(runes[start:i])
			if upper := strings.ToUpper(word); keywords[upper] {
				tokens = append(tokens, token{kind: tokKeyword, text: upper, pos: start})
			} else {
				tokens = append(tokens, token{kind: tokIdent, text: word, pos: start})
			}
		default:
			return nil, fail(i, "unexpected character '%c'", r)
		}
	}
	tokens = append(tokens, token{kind: tokEOF, pos: len(runes)})
	return tokens, nil
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.' || r == ':'
}
