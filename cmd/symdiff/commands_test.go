package main

import (
	"strings"
	"testing"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/symdiff"
)

func newTestApp() (*kingpin.Application, *BufferedPrinter, *DiffCommand) {
	app := kingpin.New("test", "")
	printer := &BufferedPrinter{}

	diff := &DiffCommand{}
	diff.Register(app, printer)
	eval := &EvalCommand{}
	eval.Register(app, printer)
	solve := &SolveCommand{}
	solve.Register(app, log.NewNopLogger, printer)

	return app, printer, diff
}

func exprJSON(t *testing.T, e symdiff.Expr) string {
	t.Helper()
	out, err := symdiff.ToJSON(e)
	require.NoError(t, err)
	return out
}

func TestDiffCommand(t *testing.T) {
	x := symdiff.X()
	app, printer, _ := newTestApp()
	square := exprJSON(t, symdiff.MulOf(x, x))

	_, err := app.Parse([]string{"diff", "--expr", square})
	require.NoError(t, err)
	_, err = app.Parse([]string{"diff", "--expr", square, "-n", "2"})
	require.NoError(t, err)
	_, err = app.Parse([]string{"diff", "--expr", exprJSON(t, symdiff.DivOf(symdiff.C(1), x)), "--latex"})
	require.NoError(t, err)

	assert.Equal(t, []string{"1*x + 1*x", "2", `\frac{-1}{x \cdot x}`}, printer.Lines)
}

func TestDiffCommand_JSONOutput(t *testing.T) {
	app, printer, _ := newTestApp()

	_, err := app.Parse([]string{"diff", "--json", "--expr", exprJSON(t, symdiff.SubOf(symdiff.X(), symdiff.C(5)))})
	require.NoError(t, err)
	assert.Equal(t, []string{`{"type":"const","value":1}`}, printer.Lines)
}

func TestDiffCommand_ReadsStdin(t *testing.T) {
	app, printer, diff := newTestApp()
	diff.source.stdin = strings.NewReader(exprJSON(t, symdiff.NegOf(symdiff.X())))

	_, err := app.Parse([]string{"diff"})
	require.NoError(t, err)
	assert.Equal(t, []string{"-1"}, printer.Lines)
}

func TestDiffCommand_InvalidInput(t *testing.T) {
	app, _, _ := newTestApp()

	_, err := app.Parse([]string{"diff", "--expr", `{"type":"pow"}`})
	assert.ErrorContains(t, err, "unknown expression type: pow")

	_, err = app.Parse([]string{"diff", "--expr", `{"type":"var"}`, "--order=-1"})
	assert.ErrorContains(t, err, "--order must be >= 0")
}

func TestEvalCommand(t *testing.T) {
	x := symdiff.X()
	app, printer, _ := newTestApp()

	_, err := app.Parse([]string{"eval", "--expr", exprJSON(t, symdiff.MulOf(x, x)), "--x=2", "--x=-1.5"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x=2 f(x)=4", "x=-1.5 f(x)=2.25"}, printer.Lines)
}

func TestSolveCommand(t *testing.T) {
	app, printer, _ := newTestApp()

	_, err := app.Parse([]string{"solve", "--expr", exprJSON(t, symdiff.SubOf(symdiff.X(), symdiff.C(5)))})
	require.NoError(t, err)
	assert.Equal(t, []string{"x0=0 root=5 iterations=1 residual=0"}, printer.Lines)
}

func TestSolveCommand_Guesses(t *testing.T) {
	x := symdiff.X()
	app, printer, _ := newTestApp()
	quadratic := exprJSON(t, symdiff.AddOf(symdiff.MulOf(x, x), x))

	_, err := app.Parse([]string{"solve", "--expr", quadratic, "--guess=-3", "--guess=1.1"})
	require.NoError(t, err)
	require.Len(t, printer.Lines, 2)
	assert.True(t, strings.HasPrefix(printer.Lines[0], "x0=-3 root=-1"), printer.Lines[0])
	assert.True(t, strings.HasPrefix(printer.Lines[1], "x0=1.1 root="), printer.Lines[1])
}

func TestSolveCommand_NoConvergence(t *testing.T) {
	app, printer, _ := newTestApp()

	_, err := app.Parse([]string{"solve", "--expr", exprJSON(t, symdiff.C(1)), "--max-iter", "50"})
	assert.ErrorIs(t, err, symdiff.ErrNoConvergence)
	assert.Empty(t, printer.Lines)

	_, err = app.Parse([]string{"solve", "--expr", exprJSON(t, symdiff.C(1)), "--max-iter", "0"})
	assert.ErrorContains(t, err, "max_iterations must be greater than 0")
}
