package symdiff

import (
	"context"
	"fmt"
	"math"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// ============================================================
// Errors
// ============================================================

// ErrNoConvergence is matched by every error returned when a solve runs out
// of iterations.
var ErrNoConvergence = errors.New("too many iterations")

// NonConvergenceError describes a solve that hit its iteration cap.
type NonConvergenceError struct {
	Iterations uint
	X          float64
	Residual   float64
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("newton: %s: no root after %d iterations (x=%g, residual=%g)", ErrNoConvergence, e.Iterations, e.X, e.Residual)
}

func (e *NonConvergenceError) Unwrap() error { return ErrNoConvergence }
func (e *NonConvergenceError) Cause() error  { return ErrNoConvergence }

// ============================================================
// Solver
// ============================================================

// Tracer observes each iterate and its residual before the convergence check.
// Tracers shared by SolveAll are called from several goroutines.
type Tracer func(iter uint, x, residual float64)

// LogTracer returns a Tracer writing one debug line per iterate.
func LogTracer(logger log.Logger) Tracer {
	return func(iter uint, x, residual float64) {
		level.Debug(logger).Log("msg", "newton iterate", "iter", iter, "x", x, "residual", residual)
	}
}

// Result is the outcome of a converged solve.
type Result struct {
	Root       float64 `json:"root"`
	Iterations uint    `json:"iterations"`
	Residual   float64 `json:"residual"`
}

// Solver runs Newton's method on expression trees. A Solver holds no
// per-solve state and may be used concurrently.
type Solver struct {
	cfg     Config
	logger  log.Logger
	metrics *solverMetrics
	tracer  Tracer
}

// NewSolver returns a Solver. A nil logger discards logs and a nil registerer
// leaves the metrics unregistered.
func NewSolver(cfg Config, logger log.Logger, reg prometheus.Registerer) *Solver {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	s := &Solver{
		cfg:     cfg,
		logger:  logger,
		metrics: newSolverMetrics(reg),
	}
	if cfg.Trace {
		s.tracer = LogTracer(logger)
	}
	return s
}

// WithTracer returns a copy of s reporting iterates to t.
func (s *Solver) WithTracer(t Tracer) *Solver {
	c := *s
	c.tracer = t
	return &c
}

// Config returns the configuration s was built with.
func (s *Solver) Config() Config { return s.cfg }

// Solve iterates x := x - f(x)/f'(x) from x0 until |f(x)| <= tolerance. The
// derivative is computed once up front.
func (s *Solver) Solve(f Expr, x0 float64) (Result, error) {
	return s.solve(context.Background(), f, f.Diff(), x0)
}

// solve stops early with ctx.Err() once ctx is done.
func (s *Solver) solve(ctx context.Context, f, fd Expr, x0 float64) (Result, error) {
	x := x0
	var iter uint
	for {
		r := f.Eval(x)
		if s.tracer != nil {
			s.tracer(iter, x, r)
		}
		if math.Abs(r) <= s.cfg.Tolerance {
			s.metrics.observe(outcomeConverged, iter)
			return Result{Root: x, Iterations: iter, Residual: r}, nil
		}
		iter++
		if iter > s.cfg.MaxIterations {
			s.metrics.observe(outcomeFailed, iter)
			level.Warn(s.logger).Log("msg", "newton solve did not converge", "f", f, "x0", x0, "iterations", iter, "x", x, "residual", r)
			return Result{}, &NonConvergenceError{Iterations: iter, X: x, Residual: r}
		}
		if err := ctx.Err(); err != nil {
			s.metrics.observe(outcomeCanceled, iter)
			return Result{}, err
		}
		x -= r / fd.Eval(x)
	}
}

// SolveAll solves f once per initial guess, concurrently, sharing one
// derivative tree. It returns the first failure, if any; the remaining solves
// are abandoned at their next iterate.
func (s *Solver) SolveAll(ctx context.Context, f Expr, guesses []float64) ([]Result, error) {
	fd := f.Diff()
	results := make([]Result, len(guesses))

	g, ctx := errgroup.WithContext(ctx)
	for i, x0 := range guesses {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := s.solve(ctx, f, fd, x0)
			if err != nil {
				return errors.Wrapf(err, "guess %d (x0=%g)", i, x0)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// SolveNewton finds a root of f starting at x0 with DefaultTolerance. It fails
// with a *NonConvergenceError once more than maxIter steps have been taken.
func SolveNewton(f Expr, x0 float64, maxIter uint) (float64, error) {
	s := NewSolver(Config{MaxIterations: maxIter, Tolerance: DefaultTolerance}, nil, nil)
	res, err := s.Solve(f, x0)
	if err != nil {
		return 0, err
	}
	return res.Root, nil
}
