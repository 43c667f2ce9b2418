// Package cql implements the subset of ECQL used to select catalog resources:
// comparisons, LIKE/ILIKE, IN, IS NULL, BETWEEN, the logical operators and
// the INCLUDE/EXCLUDE constants.
package cql

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Feature is anything a filter can be evaluated against.
type Feature interface {
	// Property returns the named attribute value and whether it exists.
	Property(name string) (interface{}, bool)
}

// PropertyMap is a Feature backed by a map.
type PropertyMap map[string]interface{}

// Property implements Feature.
func (m PropertyMap) Property(name string) (interface{}, bool) {
	v, ok := m[name]
	return v, ok
}

// Filter is a compiled filter expression.
type Filter interface {
	Evaluate(f Feature) bool
	String() string
}

var (
	// Include matches every feature.
	Include Filter = constant(true)
	// Exclude matches no feature.
	Exclude Filter = constant(false)
)

type constant bool

func (c constant) Evaluate(Feature) bool { return bool(c) }

func (c constant) String() string {
	if c {
		return "INCLUDE"
	}
	return "EXCLUDE"
}

type and []Filter

func (a and) Evaluate(f Feature) bool {
	for _, child := range a {
		if !child.Evaluate(f) {
			return false
		}
	}
	return true
}

func (a and) String() string { return join(a, " AND ") }

type or []Filter

func (o or) Evaluate(f Feature) bool {
	for _, child := range o {
		if child.Evaluate(f) {
			return true
		}
	}
	return false
}

func (o or) String() string { return join(o, " OR ") }

type not struct{ inner Filter }

func (n not) Evaluate(f Feature) bool { return !n.inner.Evaluate(f) }
func (n not) String() string          { return "NOT (" + n.inner.String() + ")" }

func join(filters []Filter, sep string) string {
	parts := make([]string, len(filters))
	for i, child := range filters {
		parts[i] = child.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// expression is a property reference or a literal.
type expression interface {
	value(f Feature) (interface{}, bool)
	String() string
}

type property string

func (p property) value(f Feature) (interface{}, bool) { return f.Property(string(p)) }
func (p property) String() string                      { return string(p) }

type literal struct{ v interface{} }

func (l literal) value(Feature) (interface{}, bool) { return l.v, true }

func (l literal) String() string {
	if s, ok := l.v.(string); ok {
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
	return fmt.Sprint(l.v)
}

type comparison struct {
	op          string
	left, right expression
}

func (c comparison) Evaluate(f Feature) bool {
	lv, lok := c.left.value(f)
	rv, rok := c.right.value(f)
	if !lok || !rok || lv == nil || rv == nil {
		return false
	}
	cmp, ok := compare(lv, rv)
	if !ok {
		return false
	}
	switch c.op {
	case "=":
		return cmp == 0
	case "<>", "!=":
		return cmp != 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	}
	return false
}

func (c comparison) String() string {
	return fmt.Sprintf("%s %s %s", c.left, c.op, c.right)
}

type like struct {
	expr            expression
	pattern         string
	re              *regexp.Regexp
	caseInsensitive bool
}

func newLike(expr expression, pattern string, caseInsensitive bool) like {
	var sb strings.Builder
	if caseInsensitive {
		sb.WriteString("(?i)")
	}
	sb.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	return like{expr: expr, pattern: pattern, re: regexp.MustCompile(sb.String()), caseInsensitive: caseInsensitive}
}

func (l like) Evaluate(f Feature) bool {
	v, ok := l.expr.value(f)
	if !ok || v == nil {
		return false
	}
	return l.re.MatchString(fmt.Sprint(v))
}

func (l like) String() string {
	op := "LIKE"
	if l.caseInsensitive {
		op = "ILIKE"
	}
	return fmt.Sprintf("%s %s %s", l.expr, op, literal{l.pattern})
}

type in struct {
	expr   expression
	values []expression
}

func (i in) Evaluate(f Feature) bool {
	v, ok := i.expr.value(f)
	if !ok || v == nil {
		return false
	}
	for _, candidate := range i.values {
		cv, cok := candidate.value(f)
		if !cok || cv == nil {
			continue
		}
		if cmp, ok := compare(v, cv); ok && cmp == 0 {
			return true
		}
	}
	return false
}

func (i in) String() string {
	parts := make([]string, len(i.values))
	for n, v := range i.values {
		parts[n] = v.String()
	}
	return fmt.Sprintf("%s IN (%s)", i.expr, strings.Join(parts, ", "))
}

type isNull struct{ expr expression }

func (n isNull) Evaluate(f Feature) bool {
	v, ok := n.expr.value(f)
	return !ok || v == nil
}

func (n isNull) String() string { return fmt.Sprintf("%s IS NULL", n.expr) }

type between struct {
	expr, low, high expression
}

func (b between) Evaluate(f Feature) bool {
	return comparison{op: ">=", left: b.expr, right: b.low}.Evaluate(f) &&
		comparison{op: "<=", left: b.expr, right: b.high}.Evaluate(f)
}

func (b between) String() string {
	return fmt.Sprintf("%s BETWEEN %s AND %s", b.expr, b.low, b.high)
}

// compare orders two values numerically when either is a number, as booleans
// when both are booleans and as strings otherwise.
func compare(a, b interface{}) (int, bool) {
	if isNumber(a) || isNumber(b) {
		af, aok := toFloat(a)
		bf, bok := toFloat(b)
		if aok && bok {
			switch {
			case af < bf:
				return -1, true
			case af > bf:
				return 1, true
			default:
				return 0, true
			}
		}
	}
	if ab, ok := a.(bool); ok {
		if bb, ok := toBool(b); ok {
			if ab == bb {
				return 0, true
			}
			return 1, true
		}
		return 0, false
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b)), true
}

func isNumber(v interface{}) bool {
	switch v.(type) {
	case float64, float32, int, int64, int32:
		return true
	}
	return false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func toBool(v interface{}) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(b)
		return parsed, err == nil
	}
	return false, false
}
