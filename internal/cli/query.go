package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
)

// Query evaluates a jq expression against data. A single result is returned
// as is; several results are collected into a slice.
func Query(ctx context.Context, expr string, data any) (any, error) {
	q, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse query %q: %w", expr, err)
	}
	code, err := gojq.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("compile query %q: %w", expr, err)
	}
	input, err := normalize(data)
	if err != nil {
		return nil, err
	}

	var results []any
	iter := code.RunWithContext(ctx, input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("query %q: %w", expr, err)
		}
		results = append(results, v)
	}
	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

// normalize converts data to the plain JSON types gojq accepts.
func normalize(data any) (any, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
