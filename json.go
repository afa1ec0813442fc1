package symdiff

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// ============================================================
// JSON Serialization
// ============================================================
//
// Wire form, one object per node:
//
//	{"type":"const","value":3}
//	{"type":"scalar","value":2.5}
//	{"type":"var"}
//	{"type":"neg","arg":{...}}
//	{"type":"add"|"sub"|"mul"|"div","left":{...},"right":{...}}

// UseNumber keeps integer constants exact past 2^53.
var jsonAPI = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

var strictJSONAPI = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
	DisallowUnknownFields:  true,
}.Froze()

// ToJSON encodes e in the wire form.
func ToJSON(e Expr) (string, error) {
	return jsonAPI.MarshalToString(e.toJSON())
}

// ToJSONMap returns the wire form of e as a generic map.
func ToJSONMap(e Expr) map[string]interface{} { return e.toJSON() }

// UnmarshalExpr decodes one expression object.
func UnmarshalExpr(data []byte) (Expr, error) {
	var m map[string]interface{}
	if err := jsonAPI.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "invalid JSON")
	}
	return FromJSON(m)
}

// DecodeJSON decodes data into v with the settings used for expressions.
func DecodeJSON(data []byte, v interface{}) error { return jsonAPI.Unmarshal(data, v) }

// EncodeJSON is the encoding counterpart of DecodeJSON.
func EncodeJSON(v interface{}) ([]byte, error) { return jsonAPI.Marshal(v) }

// FromJSON rebuilds an expression from its wire form. Nodes are rebuilt
// through the simplifying operators, so the result is always simplified.
func FromJSON(data map[string]interface{}) (Expr, error) {
	if data == nil {
		return nil, errors.New("expression must be an object")
	}
	typAny, ok := data["type"]
	if !ok {
		return nil, errors.New("missing 'type' field")
	}
	typ, ok := typAny.(string)
	if !ok || typ == "" {
		return nil, errors.New("field 'type' must be a non-empty string")
	}

	sub := func(field string) (Expr, error) {
		v, ok := data[field]
		if !ok {
			return nil, errors.Errorf("%s: missing %q", typ, field)
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, errors.Errorf("%s: %q must be an object", typ, field)
		}
		e, err := FromJSON(m)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: %s", typ, field)
		}
		return e, nil
	}

	operands := func() (Expr, Expr, error) {
		l, err := sub("left")
		if err != nil {
			return nil, nil, err
		}
		r, err := sub("right")
		if err != nil {
			return nil, nil, err
		}
		return l, r, nil
	}

	switch typ {
	case "const":
		v, ok := data["value"]
		if !ok {
			return nil, errors.New("const: missing 'value'")
		}
		n, err := toInt64(v)
		if err != nil {
			return nil, errors.Wrap(err, "const: 'value'")
		}
		return C(n), nil

	case "scalar":
		v, ok := data["value"]
		if !ok {
			return nil, errors.New("scalar: missing 'value'")
		}
		f, err := toFloat64(v)
		if err != nil {
			return nil, errors.Wrap(err, "scalar: 'value'")
		}
		return Val(f), nil

	case "var":
		return X(), nil

	case "neg":
		arg, err := sub("arg")
		if err != nil {
			return nil, err
		}
		return NegOf(arg), nil

	case "add", "sub", "mul", "div":
		l, r, err := operands()
		if err != nil {
			return nil, err
		}
		switch typ {
		case "add":
			return AddOf(l, r), nil
		case "sub":
			return SubOf(l, r), nil
		case "mul":
			return MulOf(l, r), nil
		}
		return DivOf(l, r), nil
	}
	return nil, errors.Errorf("unknown expression type: %s", typ)
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case json.Number, jsoniter.Number:
		i, err := strconv.ParseInt(fmt.Sprint(n), 10, 64)
		if err != nil {
			return 0, errors.Errorf("must be an integer, got %s", n)
		}
		return i, nil
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, errors.Errorf("must be an integer, got %v", n)
		}
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	}
	return 0, errors.Errorf("must be a number, got %T", v)
}

func toFloat64(v interface{}) (float64, error) {
	switch n := v.(type) {
	case json.Number, jsoniter.Number:
		f, err := strconv.ParseFloat(fmt.Sprint(n), 64)
		if err != nil {
			return 0, errors.Errorf("must be a number, got %s", n)
		}
		return f, nil
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	}
	return 0, errors.Errorf("must be a number, got %T", v)
}
