package cql

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse compiles an ECQL filter expression. Errors are *SyntaxError.
func Parse(text string) (Filter, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &SyntaxError{Input: text, Msg: "empty filter"}
	}
	tokens, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	p := &parser{input: text, tokens: tokens}
	f, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.errorf(tok, "unexpected %s", tok)
	}
	return f, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(text string) Filter {
	f, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return f
}

type parser struct {
	input  string
	tokens []token
	pos    int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) isKeyword(word string) bool {
	tok := p.peek()
	return tok.kind == tokKeyword && tok.text == word
}

func (p *parser) acceptKeyword(word string) bool {
	if p.isKeyword(word) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) errorf(tok token, format string, args ...interface{}) error {
	return &SyntaxError{Input: p.input, Pos: tok.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseOr() (Filter, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	children := []Filter{left}
	for p.acceptKeyword("OR") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	if len(children) == 1 {
		return left, nil
	}
	return or(children), nil
}

func (p *parser) parseAnd() (Filter, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	children := []Filter{left}
	for p.acceptKeyword("AND") {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	if len(children) == 1 {
		return left, nil
	}
	return and(children), nil
}

func (p *parser) parseNot() (Filter, error) {
	if p.acceptKeyword("NOT") {
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return not{inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Filter, error) {
	tok := p.peek()
	switch {
	case tok.kind == tokLParen:
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, p.errorf(closing, "expected ')' but found %s", closing)
		}
		return inner, nil
	case p.acceptKeyword("INCLUDE"):
		return Include, nil
	case p.acceptKeyword("EXCLUDE"):
		return Exclude, nil
	}
	return p.parsePredicate()
}

func (p *parser) parsePredicate() (Filter, error) {
	left, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	tok := p.peek()
	if tok.kind == tokOperator {
		p.next()
		right, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return comparison{op: tok.text, left: left, right: right}, nil
	}

	if p.acceptKeyword("IS") {
		negate := p.acceptKeyword("NOT")
		if !p.acceptKeyword("NULL") {
			return nil, p.errorf(p.peek(), "expected NULL but found %s", p.peek())
		}
		return maybeNot(isNull{expr: left}, negate), nil
	}

	negate := p.acceptKeyword("NOT")
	switch {
	case p.isKeyword("LIKE"), p.isKeyword("ILIKE"):
		caseInsensitive := p.next().text == "ILIKE"
		pattern := p.next()
		if pattern.kind != tokString {
			return nil, p.errorf(pattern, "expected a pattern string but found %s", pattern)
		}
		return maybeNot(newLike(left, pattern.text, caseInsensitive), negate), nil
	case p.acceptKeyword("IN"):
		values, err := p.parseList()
		if err != nil {
			return nil, err
		}
		return maybeNot(in{expr: left, values: values}, negate), nil
	case p.acceptKeyword("BETWEEN"):
		low, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if !p.acceptKeyword("AND") {
			return nil, p.errorf(p.peek(), "expected AND but found %s", p.peek())
		}
		high, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return maybeNot(between{expr: left, low: low, high: high}, negate), nil
	}
	return nil, p.errorf(p.peek(), "expected a comparison operator but found %s", p.peek())
}

func (p *parser) parseList() ([]expression, error) {
	if open := p.next(); open.kind != tokLParen {
		return nil, p.errorf(open, "expected '(' but found %s", open)
	}
	var values []expression
	for {
		v, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		sep := p.next()
		if sep.kind == tokRParen {
			return values, nil
		}
		if sep.kind != tokComma {
			return nil, p.errorf(sep, "expected ',' or ')' but found %s", sep)
		}
	}
}

func (p *parser) parseExpression() (expression, error) {
	tok := p.next()
	switch tok.kind {
	case tokIdent:
		return property(tok.text), nil
	case tokString:
		return literal{tok.text}, nil
	case tokNumber:
		n, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, p.errorf(tok, "invalid number %s", tok)
		}
		return literal{n}, nil
	case tokKeyword:
		switch tok.text {
		case "TRUE":
			return literal{true}, nil
		case "FALSE":
			return literal{false}, nil
		}
	}
	return nil, p.errorf(tok, "expected a property or a literal but found %s", tok)
}

func maybeNot(f Filter, negate bool) Filter {
	if negate {
		return not{inner: f}
	}
	return f
}
