package symdiff

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ============================================================
// Tool Interface
// ============================================================

type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

// DecodeToolRequest decodes a single tool call, rejecting unknown fields.
func DecodeToolRequest(data []byte) (ToolRequest, error) {
	var req ToolRequest
	if err := strictJSONAPI.Unmarshal(data, &req); err != nil {
		return ToolRequest{}, errors.Wrap(err, "invalid tool request")
	}
	return req, nil
}

type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	LaTeX  string      `json:"latex,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// ToolHandler dispatches tool calls. Solves go through its Solver, so they
// share its logger and metrics.
type ToolHandler struct {
	solver *Solver
}

func NewToolHandler(solver *Solver) *ToolHandler {
	return &ToolHandler{solver: solver}
}

var defaultToolHandler = NewToolHandler(NewSolver(DefaultConfig(), nil, nil))

// HandleToolCall runs req with a default solver that neither logs nor
// records metrics.
func HandleToolCall(req ToolRequest) ToolResponse {
	return defaultToolHandler.Handle(context.Background(), req)
}

func (h *ToolHandler) Handle(ctx context.Context, req ToolRequest) ToolResponse {
	getExpr := func(key string) (Expr, error) {
		v, ok := req.Params[key]
		if !ok {
			return nil, errors.Errorf("missing param: %s", key)
		}
		val, ok := v.(map[string]interface{})
		if !ok {
			return nil, errors.Errorf("invalid type for param %s", key)
		}
		return FromJSON(val)
	}
	getFloat := func(key string) (float64, bool, error) {
		v, ok := req.Params[key]
		if !ok {
			return 0, false, nil
		}
		f, err := toFloat64(v)
		if err != nil {
			return 0, true, errors.Wrapf(err, "param %s", key)
		}
		return f, true, nil
	}
	getFloats := func(key string) ([]float64, error) {
		raw, ok := req.Params[key].([]interface{})
		if !ok {
			return nil, errors.Errorf("param %s must be array", key)
		}
		out := make([]float64, len(raw))
		for i, r := range raw {
			f, err := toFloat64(r)
			if err != nil {
				return nil, errors.Wrapf(err, "param %s[%d]", key, i)
			}
			out[i] = f
		}
		return out, nil
	}
	getCount := func(key string) (int64, bool, error) {
		v, ok := req.Params[key]
		if !ok {
			return 0, false, nil
		}
		n, err := toInt64(v)
		if err != nil {
			return 0, true, errors.Wrapf(err, "param %s", key)
		}
		if n < 0 {
			return 0, true, errors.Errorf("param %s must be >= 0", key)
		}
		return n, true, nil
	}
	respond := func(e Expr) ToolResponse {
		return ToolResponse{Result: e.toJSON(), LaTeX: LaTeX(e), String: String(e)}
	}
	fail := func(err error) ToolResponse {
		return ToolResponse{Error: err.Error()}
	}

	switch req.Tool {
	case "simplify":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		return respond(Simplify(e))

	case "diff":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		return respond(Diff(e))

	case "diff2":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		return respond(Diff2(e))

	case "diffn":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		n, ok, err := getCount("n")
		if err != nil {
			return fail(err)
		}
		if !ok {
			return ToolResponse{Error: "missing param: n"}
		}
		return respond(DiffN(e, int(n)))

	case "eval":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		x, ok, err := getFloat("x")
		if err != nil {
			return fail(err)
		}
		if !ok {
			return ToolResponse{Error: "missing param: x"}
		}
		v := Eval(e, x)
		str := strconv.FormatFloat(v, 'g', -1, 64)
		if !IsFinite(v) {
			// JSON has no encoding for ±Inf or NaN.
			return ToolResponse{Result: str, String: str}
		}
		return ToolResponse{Result: v, String: str}

	case "solve_newton":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		solver := h.solver
		if n, ok, err := getCount("max_iter"); err != nil {
			return fail(err)
		} else if ok {
			solver = solver.withMaxIterations(uint(n))
		}
		if _, ok := req.Params["guesses"]; ok {
			guesses, err := getFloats("guesses")
			if err != nil {
				return fail(err)
			}
			results, err := solver.SolveAll(ctx, e, guesses)
			if err != nil {
				return fail(err)
			}
			strs := make([]string, len(results))
			for i, r := range results {
				strs[i] = strconv.FormatFloat(r.Root, 'g', -1, 64)
			}
			return ToolResponse{Result: results, String: strings.Join(strs, ", ")}
		}
		x0, ok, err := getFloat("x0")
		if err != nil {
			return fail(err)
		}
		if !ok {
			x0 = solver.Config().InitialGuess
		}
		res, err := solver.Solve(e, x0)
		if err != nil {
			return fail(err)
		}
		return ToolResponse{Result: res, String: strconv.FormatFloat(res.Root, 'g', -1, 64)}

	case "to_latex":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		return ToolResponse{Result: LaTeX(e), LaTeX: LaTeX(e), String: String(e)}

	case "size":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		return ToolResponse{
			Result: map[string]int{"size": Size(e), "depth": Depth(e)},
			String: fmt.Sprintf("size=%d depth=%d", Size(e), Depth(e)),
		}

	case "tool_spec":
		return ToolResponse{Result: ToolSpec(), String: "tool specification"}
	}

	return ToolResponse{Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
}

func (s *Solver) withMaxIterations(n uint) *Solver {
	c := *s
	c.cfg.MaxIterations = n
	return &c
}

// ============================================================
// Tool spec
// ============================================================

func ToolSpec() string {
	tools := []map[string]interface{}{
		ts("simplify", "Re-apply the construction rules to an expression", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("diff", "First derivative d/dx", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("diff2", "Second derivative d²/dx²", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("diffn", "nth derivative. Requires n (int)", []string{"expr", "n"}, map[string]string{"expr": "object", "n": "integer"}),
		ts("eval", "Evaluate at x", []string{"expr", "x"}, map[string]string{"expr": "object", "x": "number"}),
		ts("solve_newton", "Newton root finding. Optional: x0, max_iter, guesses (number[])", []string{"expr"}, map[string]string{"expr": "object", "x0": "number", "max_iter": "integer", "guesses": "array"}),
		ts("to_latex", "Convert to LaTeX", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("size", "Node count and depth of the tree", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("tool_spec", "Return this tool schema", []string{}, map[string]string{}),
	}
	spec := map[string]interface{}{"tools": tools}
	b, _ := jsonAPI.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
