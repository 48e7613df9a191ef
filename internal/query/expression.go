package query

import (
	"fmt"
	"strings"
)

// ChainOperator joins the two sides of an expression.
type ChainOperator int

const (
	ChainAnd ChainOperator = iota
	ChainOr
)

// The query grammar marks precedence with parentheses for AND and braces
// for OR.
func (c ChainOperator) parens() (lparen, rparen byte) {
	if c == ChainOr {
		return '{', '}'
	}
	return '(', ')'
}

// Expr is a binary expression over two terms. Invalid operands (nil sides,
// conditions missing an operand or operator, field descriptors that cannot
// auto-resolve) are detected at construction and reported when the
// expression is rendered.
type Expr struct {
	left, right Term
	op          ChainOperator
	negated     bool
	err         error
}

// And combines two terms into a parenthesized conjunction.
func And(left, right Term) Expr {
	return newExpr(left, ChainAnd, right)
}

// Or combines two terms into a braced disjunction.
func Or(left, right Term) Expr {
	return newExpr(left, ChainOr, right)
}

func newExpr(left Term, op ChainOperator, right Term) Expr {
	e := Expr{op: op}

	var err error
	if e.left, err = resolveSide(left); err != nil {
		e.err = err
		return e
	}
	if e.right, err = resolveSide(right); err != nil {
		e.err = err
		return e
	}
	return e
}

// resolveSide validates one operand of an expression, auto-resolving bare
// flags to "flag is set". Only flags auto-resolve; any other bare field
// descriptor is an error.
func resolveSide(side Term) (Term, error) {
	switch s := side.(type) {
	case nil:
		return nil, fmt.Errorf("expression operand is nil")
	case Flag:
		return s.cond(), nil
	case EquatableField:
		return nil, unresolved{name: s.name}.err()
	case ComparableField:
		return nil, unresolved{name: s.name}.err()
	case HasFlags:
		return nil, s.unresolved.err()
	case unresolved:
		return nil, s.err()
	case Cond:
		if !s.bound {
			return nil, fmt.Errorf("cannot filter %q without an operator", s.name)
		}
		if s.operand == nil {
			return nil, fmt.Errorf("cannot filter %q by a nil operand", s.name)
		}
		return s, nil
	case Expr:
		if s.err != nil {
			return nil, s.err
		}
		return s, nil
	default:
		return side, nil
	}
}

// Not returns a negated copy of the expression.
func (e Expr) Not() Term {
	e.negated = !e.negated
	return e
}

func (e Expr) And(other Term) Term { return And(e, other) }
func (e Expr) Or(other Term) Term  { return Or(e, other) }

func (e Expr) render(b *strings.Builder, opts Options) error {
	if e.err != nil {
		return e.err
	}

	lparen, rparen := e.op.parens()
	if e.negated {
		b.WriteByte('-')
	}
	b.WriteByte(lparen)
	if err := e.left.render(b, opts); err != nil {
		return err
	}
	b.WriteByte(' ')
	if err := e.right.render(b, opts); err != nil {
		return err
	}
	b.WriteByte(rparen)
	return nil
}
