package main

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/pkg/errors"

	"github.com/njchilds90/symdiff"
)

// exprSource reads an expression from --expr or, when that is empty, stdin.
type exprSource struct {
	raw   string
	stdin io.Reader
}

func (s *exprSource) register(cmd *kingpin.CmdClause) {
	s.stdin = os.Stdin
	cmd.Flag("expr", "Expression in JSON form. Read from stdin when omitted.").StringVar(&s.raw)
}

func (s *exprSource) read() (symdiff.Expr, error) {
	data := []byte(s.raw)
	if strings.TrimSpace(s.raw) == "" {
		var err error
		if data, err = io.ReadAll(s.stdin); err != nil {
			return nil, errors.Wrap(err, "read expression from stdin")
		}
	}
	return symdiff.UnmarshalExpr(data)
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// DiffCommand prints the n-th derivative of an expression.
type DiffCommand struct {
	printer Printer
	source  exprSource

	order  int
	asJSON bool
	latex  bool
}

func (c *DiffCommand) Register(app *kingpin.Application, printer Printer) {
	c.printer = printer

	cmd := app.Command("diff", "Differentiate an expression with respect to x.").Action(c.run)
	c.source.register(cmd)
	cmd.Flag("order", "Order of the derivative.").Short('n').Default("1").IntVar(&c.order)
	cmd.Flag("json", "Print the derivative in JSON form.").BoolVar(&c.asJSON)
	cmd.Flag("latex", "Print the derivative as LaTeX.").BoolVar(&c.latex)
}

func (c *DiffCommand) run(_ *kingpin.ParseContext) error {
	if c.order < 0 {
		return errors.Errorf("--order must be >= 0, got %d", c.order)
	}
	e, err := c.source.read()
	if err != nil {
		return err
	}
	d := symdiff.DiffN(e, c.order)
	switch {
	case c.asJSON:
		out, err := symdiff.ToJSON(d)
		if err != nil {
			return err
		}
		c.printer.PrintLine(out)
	case c.latex:
		c.printer.PrintLine(symdiff.LaTeX(d))
	default:
		c.printer.PrintLine(symdiff.String(d))
	}
	return nil
}

// EvalCommand evaluates an expression at one or more points.
type EvalCommand struct {
	printer Printer
	source  exprSource

	points []float64
}

func (c *EvalCommand) Register(app *kingpin.Application, printer Printer) {
	c.printer = printer

	cmd := app.Command("eval", "Evaluate an expression.").Action(c.run)
	c.source.register(cmd)
	cmd.Flag("x", "Point to evaluate at. Repeat for several points.").Required().Float64ListVar(&c.points)
}

func (c *EvalCommand) run(_ *kingpin.ParseContext) error {
	e, err := c.source.read()
	if err != nil {
		return err
	}
	for _, x := range c.points {
		c.printer.PrintLine("x=" + formatFloat(x) + " f(x)=" + formatFloat(symdiff.Eval(e, x)))
	}
	return nil
}

// SolveCommand runs Newton's method on an expression.
type SolveCommand struct {
	logger  func() log.Logger
	printer Printer
	source  exprSource

	cfg     symdiff.Config
	guesses []float64
}

func (c *SolveCommand) Register(app *kingpin.Application, logger func() log.Logger, printer Printer) {
	c.logger = logger
	c.printer = printer

	cmd := app.Command("solve", "Find a root with Newton's method.").Action(c.run)
	c.source.register(cmd)
	cmd.Flag("x0", "Initial guess.").Default("0").Float64Var(&c.cfg.InitialGuess)
	cmd.Flag("max-iter", "Maximum number of Newton steps.").Default("1000").UintVar(&c.cfg.MaxIterations)
	cmd.Flag("tolerance", "Residual at which an iterate is accepted.").Default(formatFloat(symdiff.DefaultTolerance)).Float64Var(&c.cfg.Tolerance)
	cmd.Flag("trace", "Log every iterate at debug level.").BoolVar(&c.cfg.Trace)
	cmd.Flag("guess", "Additional initial guess solved concurrently. Repeatable; replaces --x0.").Float64ListVar(&c.guesses)
}

func (c *SolveCommand) run(_ *kingpin.ParseContext) error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}
	e, err := c.source.read()
	if err != nil {
		return err
	}
	solver := symdiff.NewSolver(c.cfg, c.logger(), nil)

	if len(c.guesses) > 0 {
		results, err := solver.SolveAll(context.Background(), e, c.guesses)
		if err != nil {
			return err
		}
		for i, res := range results {
			c.printResult(c.guesses[i], res)
		}
		return nil
	}

	res, err := solver.Solve(e, c.cfg.InitialGuess)
	if err != nil {
		return err
	}
	c.printResult(c.cfg.InitialGuess, res)
	return nil
}

func (c *SolveCommand) printResult(x0 float64, res symdiff.Result) {
	c.printer.PrintLine("x0=" + formatFloat(x0) + " root=" + formatFloat(res.Root) +
		" iterations=" + strconv.FormatUint(uint64(res.Iterations), 10) + " residual=" + formatFloat(res.Residual))
}
