// Package query implements the search-expression algebra for the Gmail query
// grammar. Field descriptors (From, Subject, Date, Has.Attachment, ...) are
// combined into conditions and boolean expressions which render to the
// textual query syntax understood by the message-listing API.
package query

import (
	"fmt"
	"strings"
	"time"
)

// Operator identifies the comparison bound into a condition.
type Operator int

const (
	OpEqual Operator = iota
	OpNotEqual
	OpGreater
	OpLess
	OpContains
)

func (o Operator) String() string {
	switch o {
	case OpEqual:
		return "equal"
	case OpNotEqual:
		return "not-equal"
	case OpGreater:
		return "greater"
	case OpLess:
		return "less"
	case OpContains:
		return "contains"
	default:
		return fmt.Sprintf("operator(%d)", int(o))
	}
}

// Options controls rendering behavior.
type Options struct {
	// LegacyTruncation reproduces the historical behavior of truncating
	// equatable operands at the first whitespace. It silently drops the rest
	// of free-text operands such as subject lines, so it is off by default
	// and exists only for compatibility with queries built against the old
	// behavior.
	LegacyTruncation bool
}

// Term is a node of the query grammar: a single condition, a boolean
// expression combining two terms, or a field descriptor awaiting resolution.
type Term interface {
	// Not returns a negated copy of the term. The receiver is never mutated,
	// so a term may safely appear in multiple expressions.
	Not() Term
	And(other Term) Term
	Or(other Term) Term

	render(b *strings.Builder, opts Options) error
}

// Render compiles a term to the textual query syntax with default options.
func Render(t Term) (string, error) {
	return RenderWith(t, Options{})
}

// RenderWith compiles a term to the textual query syntax.
func RenderWith(t Term, opts Options) (string, error) {
	if t == nil {
		return "", fmt.Errorf("cannot render a nil query term")
	}
	var b strings.Builder
	if err := t.render(&b, opts); err != nil {
		return "", err
	}
	return b.String(), nil
}

type condKind int

const (
	kindEquatable condKind = iota
	kindComparable
	kindFlag
)

// Cond is an instantiated condition: an immutable field+operator+operand
// triple. Operator validity against the field's kind is checked at render
// time, not at construction.
type Cond struct {
	kind          condKind
	name          string
	owner         string // flag owner, kindFlag only
	less, greater string // comparison keywords, kindComparable only
	coerce        func(any) (string, error)

	op      Operator
	operand any
	bound   bool // an operator has been bound via a field constructor
	negated bool
}

func (c Cond) Not() Term {
	c.negated = !c.negated
	return c
}

func (c Cond) And(other Term) Term { return And(c, other) }
func (c Cond) Or(other Term) Term  { return Or(c, other) }

func (c Cond) render(b *strings.Builder, opts Options) error {
	switch c.kind {
	case kindEquatable:
		return c.renderEquatable(b, opts)
	case kindComparable:
		return c.renderComparable(b)
	case kindFlag:
		return c.renderFlag(b)
	default:
		return fmt.Errorf("unknown condition kind %d", int(c.kind))
	}
}

func (c Cond) renderEquatable(b *strings.Builder, opts Options) error {
	value := fmt.Sprint(c.operand)
	if opts.LegacyTruncation {
		if fields := strings.Fields(value); len(fields) > 0 {
			value = fields[0]
		}
	}

	switch c.op {
	case OpEqual, OpNotEqual:
		// NotEqual flips the sign so that negating it again cancels out.
		if c.negated != (c.op == OpNotEqual) {
			b.WriteByte('-')
		}
		fmt.Fprintf(b, "%s:%q", c.name, value)
		return nil
	case OpContains:
		if c.negated {
			b.WriteByte('-')
		}
		fmt.Fprintf(b, "%s:%s", c.name, value)
		return nil
	default:
		return fmt.Errorf("invalid operator %q for equatable field %q", c.op, c.name)
	}
}

func (c Cond) renderComparable(b *strings.Builder) error {
	var keyword string
	switch c.op {
	case OpGreater:
		keyword = c.greater
	case OpLess:
		keyword = c.less
	default:
		return fmt.Errorf("invalid operator %q for comparable field %q", c.op, c.name)
	}

	value, err := c.coerce(c.operand)
	if err != nil {
		return fmt.Errorf("failed to coerce %q operand: %w", c.name, err)
	}

	if c.negated {
		b.WriteByte('-')
	}
	fmt.Fprintf(b, "%s:%s", keyword, value)
	return nil
}

func (c Cond) renderFlag(b *strings.Builder) error {
	if c.op != OpEqual && c.op != OpNotEqual {
		return fmt.Errorf("invalid operator %q for flag %q", c.op, c.name)
	}
	truth := (c.op == OpEqual) != c.negated
	if !truth {
		b.WriteByte('-')
	}
	fmt.Fprintf(b, "%s:%s", c.owner, c.name)
	return nil
}

// EquatableField is a field that can be tested for equality or containment,
// e.g. from, to, subject.
type EquatableField struct {
	name string
}

// Eq builds a condition matching messages whose field equals v.
func (f EquatableField) Eq(v any) Cond {
	return Cond{kind: kindEquatable, name: f.name, op: OpEqual, operand: v, bound: true}
}

// Ne builds a condition matching messages whose field does not equal v.
func (f EquatableField) Ne(v any) Cond {
	return Cond{kind: kindEquatable, name: f.name, op: OpNotEqual, operand: v, bound: true}
}

// Contains builds a condition matching messages whose field contains v.
func (f EquatableField) Contains(v any) Cond {
	return Cond{kind: kindEquatable, name: f.name, op: OpContains, operand: v, bound: true}
}

func (f EquatableField) Not() Term          { return unresolved{name: f.name} }
func (f EquatableField) And(t Term) Term    { return And(f, t) }
func (f EquatableField) Or(t Term) Term     { return Or(f, t) }
func (f EquatableField) render(*strings.Builder, Options) error {
	return unresolved{name: f.name}.err()
}

// ComparableField is a field ordered along an axis with dedicated query
// keywords for each direction, e.g. date (after/before), size (larger/smaller).
type ComparableField struct {
	name          string
	less, greater string
	coerce        func(any) (string, error)
}

// Gt builds a condition matching messages whose field exceeds v; it renders
// with the field's "greater" keyword.
func (f ComparableField) Gt(v any) Cond {
	return Cond{kind: kindComparable, name: f.name, less: f.less, greater: f.greater,
		coerce: f.coerce, op: OpGreater, operand: v, bound: true}
}

// Lt builds a condition matching messages whose field is below v; it renders
// with the field's "less" keyword.
func (f ComparableField) Lt(v any) Cond {
	return Cond{kind: kindComparable, name: f.name, less: f.less, greater: f.greater,
		coerce: f.coerce, op: OpLess, operand: v, bound: true}
}

func (f ComparableField) Not() Term       { return unresolved{name: f.name} }
func (f ComparableField) And(t Term) Term { return And(f, t) }
func (f ComparableField) Or(t Term) Term  { return Or(f, t) }
func (f ComparableField) render(*strings.Builder, Options) error {
	return unresolved{name: f.name}.err()
}

// Flag is a boolean attribute owned by an enumerative field. Used bare in a
// boolean context it resolves to "flag is set".
type Flag struct {
	owner string
	name  string
}

func (f Flag) cond() Cond {
	return Cond{kind: kindFlag, owner: f.owner, name: f.name, op: OpEqual, operand: true, bound: true}
}

func (f Flag) Not() Term       { return f.cond().Not() }
func (f Flag) And(t Term) Term { return And(f, t) }
func (f Flag) Or(t Term) Term  { return Or(f, t) }
func (f Flag) render(b *strings.Builder, opts Options) error {
	return f.cond().render(b, opts)
}

// unresolved marks a field descriptor that cannot stand alone in a boolean
// context. Rendering it reports the resolution error.
type unresolved struct {
	name string
}

func (u unresolved) err() error {
	return fmt.Errorf("cannot resolve field %q outside a boolean context; bind it with an operator first", u.name)
}

func (u unresolved) Not() Term       { return u }
func (u unresolved) And(t Term) Term { return And(u, t) }
func (u unresolved) Or(t Term) Term  { return Or(u, t) }
func (u unresolved) render(*strings.Builder, Options) error {
	return u.err()
}

// HasFlags groups the boolean flags owned by the "has" field. The owner
// itself cannot be rendered; reference one of its flags instead.
type HasFlags struct {
	unresolved

	Attachment   Flag
	YoutubeVideo Flag
	Drive        Flag
	Document     Flag
	Spreadsheet  Flag
	Presentation Flag
	UserLabels   Flag
}

func newHasFlags() HasFlags {
	const owner = "has"
	return HasFlags{
		unresolved:   unresolved{name: owner},
		Attachment:   Flag{owner: owner, name: "attachment"},
		YoutubeVideo: Flag{owner: owner, name: "youtube"},
		Drive:        Flag{owner: owner, name: "drive"},
		Document:     Flag{owner: owner, name: "document"},
		Spreadsheet:  Flag{owner: owner, name: "spreadsheet"},
		Presentation: Flag{owner: owner, name: "presentation"},
		UserLabels:   Flag{owner: owner, name: "userlabels"},
	}
}

// The search vocabulary.
var (
	From     = EquatableField{name: "from"}
	To       = EquatableField{name: "to"}
	Cc       = EquatableField{name: "cc"}
	Bcc      = EquatableField{name: "bcc"}
	Subject  = EquatableField{name: "subject"}
	Filename = EquatableField{name: "filename"}

	Date = ComparableField{name: "date", greater: "after", less: "before", coerce: coerceDate}
	Size = ComparableField{name: "size", greater: "larger", less: "smaller", coerce: coerceSize}

	Has = newHasFlags()
)

const dateLayout = "2006-01-02"

// coerceDate normalizes date operands to an ISO date string.
func coerceDate(v any) (string, error) {
	switch d := v.(type) {
	case time.Time:
		return d.Format(dateLayout), nil
	case string:
		for _, layout := range []string{dateLayout, "2006/01/02", time.RFC3339} {
			if parsed, err := time.Parse(layout, d); err == nil {
				return parsed.Format(dateLayout), nil
			}
		}
		return "", fmt.Errorf("unrecognized date %q", d)
	default:
		return "", fmt.Errorf("date operand must be a time.Time or date string, got %T", v)
	}
}

// coerceSize normalizes size operands to a decimal byte count.
func coerceSize(v any) (string, error) {
	switch n := v.(type) {
	case int:
		return fmt.Sprintf("%d", n), nil
	case int64:
		return fmt.Sprintf("%d", n), nil
	case string:
		if strings.TrimSpace(n) == "" {
			return "", fmt.Errorf("size operand is empty")
		}
		return n, nil
	default:
		return "", fmt.Errorf("size operand must be an integer or string, got %T", v)
	}
}
