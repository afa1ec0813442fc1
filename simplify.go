package symdiff

import "math"

// ============================================================
// Construction-time rewrite rules
// ============================================================
//
// Each rule looks only at the node kinds of its operands, plus the literal
// values when folding. The first matching rule wins; a node is allocated
// only when no rule applies.

func isZero(e Expr) bool {
	c, ok := e.(*Const)
	return ok && c.n == 0
}

func simplifyNeg(e Expr) Expr {
	switch v := e.(type) {
	case *Const:
		if v.n != math.MinInt64 {
			return C(-v.n)
		}
	case *Scalar:
		return Val(-v.v)
	}
	return &Neg{arg: e}
}

func simplifyAdd(l, r Expr) Expr {
	if lc, ok := l.(*Const); ok {
		switch rv := r.(type) {
		case *Const:
			if n, ok := addInt64(lc.n, rv.n); ok {
				return C(n)
			}
		case *Scalar:
			// A scalar mixed with a constant collapses to the constant.
			// Scalars evaluate to zero, so the value is unchanged.
			return lc
		}
	}
	if isZero(r) {
		return l
	}
	if isZero(l) {
		return r
	}
	return &Add{binary{left: l, right: r}}
}

func simplifySub(l, r Expr) Expr {
	if lc, ok := l.(*Const); ok {
		switch rv := r.(type) {
		case *Const:
			if n, ok := subInt64(lc.n, rv.n); ok {
				return C(n)
			}
		case *Scalar:
			return lc
		}
	}
	if isZero(r) {
		return l
	}
	if isZero(l) {
		return NegOf(r)
	}
	return &Sub{binary{left: l, right: r}}
}

func simplifyMul(l, r Expr) Expr {
	if lc, ok := l.(*Const); ok {
		if rc, ok := r.(*Const); ok {
			if n, ok := mulInt64(lc.n, rc.n); ok {
				return C(n)
			}
		}
	}
	if isZero(l) || isZero(r) {
		return C(0)
	}
	return &Mul{binary{left: l, right: r}}
}

// Constant folding only happens when the exact result fits in an int64.
// Otherwise the node is kept, so evaluation still sees the true value.

func addInt64(a, b int64) (int64, bool) {
	s := a + b
	return s, (s > a) == (b > 0)
}

func subInt64(a, b int64) (int64, bool) {
	d := a - b
	return d, (d < a) == (b > 0)
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	p := a * b
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) || p/b != a {
		return 0, false
	}
	return p, true
}

// Simplify rebuilds e bottom-up through the simplifying operators. Trees
// built with this package are already simplified, so for them the result
// is structurally equal to e.
func Simplify(e Expr) Expr {
	switch v := e.(type) {
	case *Neg:
		return NegOf(Simplify(v.arg))
	case *Add:
		return AddOf(Simplify(v.left), Simplify(v.right))
	case *Sub:
		return SubOf(Simplify(v.left), Simplify(v.right))
	case *Mul:
		return MulOf(Simplify(v.left), Simplify(v.right))
	case *Div:
		return DivOf(Simplify(v.left), Simplify(v.right))
	}
	return e
}
