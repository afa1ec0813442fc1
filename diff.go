package symdiff

// Diff returns the derivative of e with respect to x. The tree is built
// eagerly through the simplifying operators.
func Diff(e Expr) Expr { return e.Diff() }

// Diff2 returns the second derivative of e.
func Diff2(e Expr) Expr { return e.Diff().Diff() }

// DiffN returns the n-th derivative of e. DiffN(e, 0) is e itself.
func DiffN(e Expr, n int) Expr {
	result := e
	for i := 0; i < n; i++ {
		result = result.Diff()
	}
	return result
}
