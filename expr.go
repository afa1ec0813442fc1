// Package symdiff builds small arithmetic expression trees over a single
// real variable, differentiates them symbolically, evaluates them and finds
// their roots with Newton's method.
//
// Design goals:
//   - Immutable trees, simplified as they are built
//   - Deterministic derivative shapes (no canonical reordering)
//   - JSON, LaTeX and tool-call APIs for services and agent backends
package symdiff

import (
	"strconv"
)

// ============================================================
// Core Interface
// ============================================================

// Expr is one node of an expression tree. Nodes never change after they are
// built, so a tree may be read from any number of goroutines.
type Expr interface {
	String() string
	LaTeX() string
	Equal(other Expr) bool
	Diff() Expr
	Eval(x float64) float64
	exprType() string
	toJSON() map[string]interface{}
}

// Binding strength used when printing.
const (
	precSum = iota + 1
	precProduct
	precUnary
	precAtom
)

func precedence(e Expr) int {
	switch v := e.(type) {
	case *Add, *Sub:
		return precSum
	case *Mul, *Div:
		return precProduct
	case *Neg:
		return precUnary
	case *Const:
		if v.n < 0 {
			return precUnary
		}
	case *Scalar:
		if v.v < 0 {
			return precUnary
		}
	}
	return precAtom
}

func paren(e Expr, wrap bool) string {
	if wrap {
		return "(" + e.String() + ")"
	}
	return e.String()
}

func parenLaTeX(e Expr, wrap bool) string {
	if wrap {
		return "\\left(" + e.LaTeX() + "\\right)"
	}
	return e.LaTeX()
}

// ============================================================
// Const: exact integer literal
// ============================================================

type Const struct{ n int64 }

// C returns the integer constant n.
func C(n int64) *Const { return &Const{n: n} }

func (c *Const) String() string        { return strconv.FormatInt(c.n, 10) }
func (c *Const) LaTeX() string         { return c.String() }
func (c *Const) Equal(other Expr) bool { o, ok := other.(*Const); return ok && c.n == o.n }
func (c *Const) Diff() Expr            { return C(0) }
func (c *Const) Eval(float64) float64  { return float64(c.n) }
func (c *Const) exprType() string      { return "const" }
func (c *Const) Value() int64          { return c.n }
func (c *Const) IsZero() bool          { return c.n == 0 }
func (c *Const) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "const", "value": c.n}
}

// ============================================================
// Scalar: opaque numeric literal
// ============================================================

// Scalar holds a real literal that the differentiation rules treat as an
// opaque placeholder. It evaluates to zero regardless of its stored value.
type Scalar struct{ v float64 }

// Val returns a scalar literal holding v.
func Val(v float64) *Scalar { return &Scalar{v: v} }

func (s *Scalar) String() string        { return strconv.FormatFloat(s.v, 'g', -1, 64) }
func (s *Scalar) LaTeX() string         { return s.String() }
func (s *Scalar) Equal(other Expr) bool { o, ok := other.(*Scalar); return ok && s.v == o.v }
func (s *Scalar) Diff() Expr            { return C(0) }
func (s *Scalar) Eval(float64) float64  { return 0 }
func (s *Scalar) exprType() string      { return "scalar" }
func (s *Scalar) Value() float64        { return s.v }
func (s *Scalar) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "scalar", "value": s.v}
}

// ============================================================
// Var: the independent variable
// ============================================================

type Var struct{}

// X returns the independent variable.
func X() *Var { return &Var{} }

func (v *Var) String() string         { return "x" }
func (v *Var) LaTeX() string          { return "x" }
func (v *Var) Equal(other Expr) bool  { _, ok := other.(*Var); return ok }
func (v *Var) Diff() Expr             { return C(1) }
func (v *Var) Eval(x float64) float64 { return x }
func (v *Var) exprType() string       { return "var" }
func (v *Var) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "var"}
}

// ============================================================
// Neg: unary minus
// ============================================================

type Neg struct{ arg Expr }

// NegOf returns -e, folded when e is a literal.
func NegOf(e Expr) Expr { return simplifyNeg(e) }

func (n *Neg) String() string         { return "-" + paren(n.arg, precedence(n.arg) < precAtom) }
func (n *Neg) LaTeX() string          { return "-" + parenLaTeX(n.arg, precedence(n.arg) < precAtom) }
func (n *Neg) Diff() Expr             { return NegOf(n.arg.Diff()) }
func (n *Neg) Eval(x float64) float64 { return -n.arg.Eval(x) }
func (n *Neg) exprType() string       { return "neg" }
func (n *Neg) Arg() Expr              { return n.arg }
func (n *Neg) Equal(other Expr) bool {
	o, ok := other.(*Neg)
	return ok && n.arg.Equal(o.arg)
}
func (n *Neg) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "neg", "arg": n.arg.toJSON()}
}

// ============================================================
// Binary nodes: Add, Sub, Mul, Div
// ============================================================

// binary carries the two owned operands shared by every binary node.
type binary struct{ left, right Expr }

func (b binary) Left() Expr  { return b.left }
func (b binary) Right() Expr { return b.right }

func (b binary) equal(o binary) bool {
	return b.left.Equal(o.left) && b.right.Equal(o.right)
}

func (b binary) json(typ string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "left": b.left.toJSON(), "right": b.right.toJSON()}
}

func (b binary) format(op string, prec int, strictRight bool) string {
	rp := precedence(b.right)
	return paren(b.left, precedence(b.left) < prec) + op + paren(b.right, rp < prec || (strictRight && rp == prec))
}

func (b binary) formatLaTeX(op string, prec int, strictRight bool) string {
	rp := precedence(b.right)
	return parenLaTeX(b.left, precedence(b.left) < prec) + op + parenLaTeX(b.right, rp < prec || (strictRight && rp == prec))
}

type Add struct{ binary }

// AddOf returns l + r after applying the addition rules.
func AddOf(l, r Expr) Expr { return simplifyAdd(l, r) }

func (a *Add) String() string         { return a.format(" + ", precSum, true) }
func (a *Add) LaTeX() string          { return a.formatLaTeX(" + ", precSum, true) }
func (a *Add) Diff() Expr             { return AddOf(a.left.Diff(), a.right.Diff()) }
func (a *Add) Eval(x float64) float64 { return a.left.Eval(x) + a.right.Eval(x) }
func (a *Add) exprType() string       { return "add" }
func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	return ok && a.equal(o.binary)
}
func (a *Add) toJSON() map[string]interface{} { return a.json("add") }

type Sub struct{ binary }

// SubOf returns l - r after applying the subtraction rules.
func SubOf(l, r Expr) Expr { return simplifySub(l, r) }

func (s *Sub) String() string         { return s.format(" - ", precSum, true) }
func (s *Sub) LaTeX() string          { return s.formatLaTeX(" - ", precSum, true) }
func (s *Sub) Diff() Expr             { return SubOf(s.left.Diff(), s.right.Diff()) }
func (s *Sub) Eval(x float64) float64 { return s.left.Eval(x) - s.right.Eval(x) }
func (s *Sub) exprType() string       { return "sub" }
func (s *Sub) Equal(other Expr) bool {
	o, ok := other.(*Sub)
	return ok && s.equal(o.binary)
}
func (s *Sub) toJSON() map[string]interface{} { return s.json("sub") }

type Mul struct{ binary }

// MulOf returns l * r after applying the multiplication rules.
func MulOf(l, r Expr) Expr { return simplifyMul(l, r) }

func (m *Mul) String() string         { return m.format("*", precProduct, true) }
func (m *Mul) LaTeX() string          { return m.formatLaTeX(" \\cdot ", precProduct, true) }
func (m *Mul) Eval(x float64) float64 { return m.left.Eval(x) * m.right.Eval(x) }
func (m *Mul) exprType() string       { return "mul" }
func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	return ok && m.equal(o.binary)
}
func (m *Mul) toJSON() map[string]interface{} { return m.json("mul") }

// Diff applies the product rule: (uv)' = u'v + v'u.
func (m *Mul) Diff() Expr {
	return AddOf(MulOf(m.left.Diff(), m.right), MulOf(m.right.Diff(), m.left))
}

type Div struct{ binary }

// DivOf returns l / r. Division is never folded, not even between constants.
func DivOf(l, r Expr) Expr { return &Div{binary{left: l, right: r}} }

func (d *Div) String() string         { return d.format("/", precProduct, true) }
func (d *Div) LaTeX() string          { return "\\frac{" + d.left.LaTeX() + "}{" + d.right.LaTeX() + "}" }
func (d *Div) Eval(x float64) float64 { return d.left.Eval(x) / d.right.Eval(x) }
func (d *Div) exprType() string       { return "div" }
func (d *Div) Equal(other Expr) bool {
	o, ok := other.(*Div)
	return ok && d.equal(o.binary)
}
func (d *Div) toJSON() map[string]interface{} { return d.json("div") }

// Diff applies the quotient rule: (u/v)' = (u'v - v'u) / (v*v).
func (d *Div) Diff() Expr {
	num := SubOf(MulOf(d.left.Diff(), d.right), MulOf(d.right.Diff(), d.left))
	return DivOf(num, MulOf(d.right, d.right))
}

// ============================================================
// Tree metrics
// ============================================================

// Size returns the number of nodes in e.
func Size(e Expr) int {
	switch v := e.(type) {
	case *Neg:
		return 1 + Size(v.arg)
	case *Add:
		return 1 + Size(v.left) + Size(v.right)
	case *Sub:
		return 1 + Size(v.left) + Size(v.right)
	case *Mul:
		return 1 + Size(v.left) + Size(v.right)
	case *Div:
		return 1 + Size(v.left) + Size(v.right)
	}
	return 1
}

// Depth returns the length of the longest root-to-leaf path in e; a leaf has depth 1.
func Depth(e Expr) int {
	switch v := e.(type) {
	case *Neg:
		return 1 + Depth(v.arg)
	case *Add:
		return 1 + max(Depth(v.left), Depth(v.right))
	case *Sub:
		return 1 + max(Depth(v.left), Depth(v.right))
	case *Mul:
		return 1 + max(Depth(v.left), Depth(v.right))
	case *Div:
		return 1 + max(Depth(v.left), Depth(v.right))
	}
	return 1
}

// ============================================================
// Top-level convenience functions
// ============================================================

func String(e Expr) string { return e.String() }
func LaTeX(e Expr) string  { return e.LaTeX() }
