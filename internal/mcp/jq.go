package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/itchyny/gojq"
)

// jqAge is a custom jq function that returns seconds elapsed since an RFC3339 time.
// It returns null for null.
func jqAge(now func() time.Time) func(any, []any) any {
	return func(x any, _ []any) any {
		if x == nil {
			return nil
		}
		str, ok := x.(string)
		if !ok {
			return fmt.Errorf("age/0: expected a string but got %T (%v)", x, x)
		}
		t, err := time.Parse(time.RFC3339Nano, str)
		if err != nil {
			return fmt.Errorf("age/0: failed to parse time: %v", err)
		}
		return now().Sub(t).Seconds()
	}
}

// JQQuery represents a compiled jq query.
type JQQuery struct {
	Code *gojq.Code
}

// ParseJQ parses a jq query string.
func ParseJQ(query string) (JQQuery, error) {
	return parseJQ(query, time.Now)
}

func parseJQ(query string, now func() time.Time) (JQQuery, error) {
	if query == "" {
		query = "."
	}

	q, err := gojq.Parse(query)
	if err != nil {
		return JQQuery{}, err
	}

	c, err := gojq.Compile(
		q,
		gojq.WithFunction("age", 0, 0, jqAge(now)),
	)
	if err != nil {
		return JQQuery{}, err
	}

	return JQQuery{Code: c}, nil
}

// Output represents the result of an MCP tool call.
type Output struct {
	Result any `json:"result" jsonschema:"The result of the query."`
}

// Run executes the jq query on the input and returns the result.
func (q JQQuery) Run(ctx context.Context, input any) (Output, error) {
	var outputs []any

	iter := q.Code.RunWithContext(ctx, input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if halt, ok := v.(*gojq.HaltError); ok {
			if halt.ExitCode() == 0 {
				break
			}
			v := map[string]any{
				"status":    "halt_error",
				"exit_code": halt.ExitCode(),
				"value":     halt.Value(),
			}
			outputs = append(outputs, v)
			break
		} else if err, ok := v.(error); ok {
			return Output{}, err
		}
		outputs = append(outputs, v)
	}

	if len(outputs) == 1 {
		return Output{
			Result: outputs[0],
		}, nil
	} else {
		return Output{
			Result: outputs,
		}, nil
	}
}

// ToJQValue converts v into the generic form that gojq accepts, via JSON.
func ToJQValue(v any) (any, error) {
	bs, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var out any
	if err := json.Unmarshal(bs, &out); err != nil {
		return nil, err
	}
	return out, nil
}
