package symdiff_test

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/symdiff"
)

func exprParam(e symdiff.Expr) map[string]interface{} { return symdiff.ToJSONMap(e) }

func TestHandleToolCall_Diff(t *testing.T) {
	x := symdiff.X()
	resp := symdiff.HandleToolCall(symdiff.ToolRequest{
		Tool:   "diff",
		Params: map[string]interface{}{"expr": exprParam(symdiff.MulOf(x, x))},
	})
	require.Empty(t, resp.Error)
	assert.Equal(t, "1*x + 1*x", resp.String)
	assert.Equal(t, `1 \cdot x + 1 \cdot x`, resp.LaTeX)
}

func TestHandleToolCall_DiffN(t *testing.T) {
	x := symdiff.X()
	resp := symdiff.HandleToolCall(symdiff.ToolRequest{
		Tool:   "diffn",
		Params: map[string]interface{}{"expr": exprParam(symdiff.MulOf(x, x)), "n": float64(2)},
	})
	require.Empty(t, resp.Error)
	assert.Equal(t, "2", resp.String)

	resp = symdiff.HandleToolCall(symdiff.ToolRequest{
		Tool:   "diffn",
		Params: map[string]interface{}{"expr": exprParam(x), "n": float64(-1)},
	})
	assert.Equal(t, "param n must be >= 0", resp.Error)
}

func TestHandleToolCall_Eval(t *testing.T) {
	x := symdiff.X()
	resp := symdiff.HandleToolCall(symdiff.ToolRequest{
		Tool:   "eval",
		Params: map[string]interface{}{"expr": exprParam(symdiff.MulOf(x, x)), "x": 3.0},
	})
	require.Empty(t, resp.Error)
	assert.Equal(t, 9.0, resp.Result)
	assert.Equal(t, "9", resp.String)
}

func TestHandleToolCall_EvalNonFinite(t *testing.T) {
	x := symdiff.X()
	for _, tc := range []struct {
		expr symdiff.Expr
		want string
	}{
		{symdiff.DivOf(symdiff.C(1), x), "+Inf"},
		{symdiff.DivOf(symdiff.C(-1), x), "-Inf"},
		{symdiff.DivOf(x, x), "NaN"},
	} {
		resp := symdiff.HandleToolCall(symdiff.ToolRequest{
			Tool:   "eval",
			Params: map[string]interface{}{"expr": exprParam(tc.expr), "x": 0.0},
		})
		require.Empty(t, resp.Error)
		assert.Equal(t, tc.want, resp.String)
		assert.Equal(t, tc.want, resp.Result)

		_, err := symdiff.EncodeJSON(resp)
		assert.NoError(t, err, tc.want)
	}
}

func TestDecodeToolRequest(t *testing.T) {
	req, err := symdiff.DecodeToolRequest([]byte(`{"tool":"eval","params":{"expr":{"type":"var"},"x":2}}`))
	require.NoError(t, err)
	assert.Equal(t, "eval", req.Tool)
	assert.Equal(t, "4", symdiff.HandleToolCall(symdiff.ToolRequest{
		Tool:   req.Tool,
		Params: map[string]interface{}{"expr": req.Params["expr"], "x": 4},
	}).String)

	_, err = symdiff.DecodeToolRequest([]byte(`{"tool":"eval","param":{}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid tool request")
}

func TestHandleToolCall_SolveNewton(t *testing.T) {
	x := symdiff.X()
	resp := symdiff.HandleToolCall(symdiff.ToolRequest{
		Tool:   "solve_newton",
		Params: map[string]interface{}{"expr": exprParam(symdiff.SubOf(x, symdiff.C(5))), "x0": 0.0},
	})
	require.Empty(t, resp.Error)
	assert.Equal(t, symdiff.Result{Root: 5, Iterations: 1}, resp.Result)
	assert.Equal(t, "5", resp.String)
}

func TestHandleToolCall_SolveNewtonGuesses(t *testing.T) {
	resp := symdiff.HandleToolCall(symdiff.ToolRequest{
		Tool:   "solve_newton",
		Params: map[string]interface{}{"expr": exprParam(quadratic()), "guesses": []interface{}{-3.0, 1.1}},
	})
	require.Empty(t, resp.Error)
	results, ok := resp.Result.([]symdiff.Result)
	require.True(t, ok, "got %T", resp.Result)
	require.Len(t, results, 2)
	assert.InDelta(t, -1, results[0].Root, 1e-9)
	assert.InDelta(t, 0, results[1].Root, 1e-9)
}

func TestHandleToolCall_SolveNewtonNoConvergence(t *testing.T) {
	resp := symdiff.HandleToolCall(symdiff.ToolRequest{
		Tool:   "solve_newton",
		Params: map[string]interface{}{"expr": exprParam(symdiff.C(1)), "max_iter": float64(50)},
	})
	assert.Contains(t, resp.Error, "too many iterations")
	assert.Contains(t, resp.Error, "51 iterations")
}

func TestToolHandler_UsesSolverMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := symdiff.NewToolHandler(symdiff.NewSolver(symdiff.DefaultConfig(), nil, reg))

	resp := h.Handle(context.Background(), symdiff.ToolRequest{
		Tool:   "solve_newton",
		Params: map[string]interface{}{"expr": exprParam(quadratic()), "x0": 1.1},
	})
	require.Empty(t, resp.Error)

	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(`
		# HELP symdiff_newton_solves_total Total number of Newton solves by outcome.
		# TYPE symdiff_newton_solves_total counter
		symdiff_newton_solves_total{outcome="converged"} 1
	`), "symdiff_newton_solves_total"))
}

func TestHandleToolCall_SimplifyAndSize(t *testing.T) {
	x := symdiff.X()
	e := symdiff.AddOf(symdiff.MulOf(x, x), x)

	resp := symdiff.HandleToolCall(symdiff.ToolRequest{Tool: "simplify", Params: map[string]interface{}{"expr": exprParam(e)}})
	require.Empty(t, resp.Error)
	assert.Equal(t, "x*x + x", resp.String)

	resp = symdiff.HandleToolCall(symdiff.ToolRequest{Tool: "size", Params: map[string]interface{}{"expr": exprParam(e)}})
	require.Empty(t, resp.Error)
	assert.Equal(t, map[string]int{"size": 5, "depth": 3}, resp.Result)

	resp = symdiff.HandleToolCall(symdiff.ToolRequest{Tool: "to_latex", Params: map[string]interface{}{"expr": exprParam(e)}})
	require.Empty(t, resp.Error)
	assert.Equal(t, `x \cdot x + x`, resp.LaTeX)
}

func TestHandleToolCall_Errors(t *testing.T) {
	resp := symdiff.HandleToolCall(symdiff.ToolRequest{Tool: "integrate"})
	assert.Equal(t, "unknown tool: integrate", resp.Error)

	resp = symdiff.HandleToolCall(symdiff.ToolRequest{Tool: "diff", Params: map[string]interface{}{}})
	assert.Equal(t, "missing param: expr", resp.Error)

	resp = symdiff.HandleToolCall(symdiff.ToolRequest{Tool: "eval", Params: map[string]interface{}{"expr": exprParam(symdiff.X())}})
	assert.Equal(t, "missing param: x", resp.Error)

	resp = symdiff.HandleToolCall(symdiff.ToolRequest{Tool: "eval", Params: map[string]interface{}{"expr": exprParam(symdiff.X()), "x": "three"}})
	assert.Contains(t, resp.Error, "param x")
}

func TestToolSpec(t *testing.T) {
	var spec struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, symdiff.DecodeJSON([]byte(symdiff.ToolSpec()), &spec))

	var names []string
	for _, tool := range spec.Tools {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"simplify", "diff", "diff2", "diffn", "eval", "solve_newton", "to_latex", "size", "tool_spec"}, names)
}
