package symdiff

import "math"

// Eval returns the value of e at x. A zero denominator produces ±Inf or NaN
// under ordinary float64 arithmetic; it is never reported as an error.
func Eval(e Expr, x float64) float64 { return e.Eval(x) }

// EvalFunc returns e as a plain function of x.
func EvalFunc(e Expr) func(float64) float64 {
	return func(x float64) float64 { return e.Eval(x) }
}

// IsFinite reports whether v is neither infinite nor NaN.
func IsFinite(v float64) bool { return !math.IsInf(v, 0) && !math.IsNaN(v) }
