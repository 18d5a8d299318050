package synthesis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"execsummary-backend/internal/llm"
	"execsummary-backend/internal/sources"
)

// mergeReply is the parsed merge-shape reply.
type mergeReply struct {
	Statements []string
	Breakdown  map[string]any
}

func parseObject(text string) (gjson.Result, error) {
	clean := llm.StripCodeFence(text)
	if clean == "" || !gjson.Valid(clean) {
		return gjson.Result{}, fmt.Errorf("%w: reply is not valid JSON", ErrMalformedReply)
	}
	root := gjson.Parse(clean)
	if !root.IsObject() {
		return gjson.Result{}, fmt.Errorf("%w: reply is not a JSON object", ErrMalformedReply)
	}
	return root, nil
}

// parseMerge reads {mergedStatements, sourceBreakdown}. Statements may be a
// string or an array. Sources listed in absent are always reported as
// unavailable, whatever the model said.
func parseMerge(text string, keys []string, absent map[string]bool) (mergeReply, error) {
	root, err := parseObject(text)
	if err != nil {
		return mergeReply{}, err
	}
	statements := textList(firstOf(root, "mergedStatements", "merged_statements", "statements"))
	if len(statements) == 0 {
		return mergeReply{}, fmt.Errorf("%w: no merged statements", ErrMalformedReply)
	}

	breakdown := map[string]any{}
	if raw := firstOf(root, "sourceBreakdown", "source_breakdown"); raw.IsObject() {
		if err := json.Unmarshal([]byte(raw.Raw), &breakdown); err != nil {
			return mergeReply{}, fmt.Errorf("%w: source breakdown: %v", ErrMalformedReply, err)
		}
	}
	for _, key := range keys {
		if absent[key] {
			breakdown[key] = map[string]any{"available": false}
			continue
		}
		if _, ok := breakdown[key]; !ok {
			breakdown[key] = map[string]any{"available": true}
		}
	}
	return mergeReply{Statements: statements, Breakdown: breakdown}, nil
}

// parseFields reads one value per target column. Keys may use the column
// name or camelCase; arrays are joined with newlines; other keys are ignored.
func parseFields(text string, columns []string) (map[string]string, error) {
	root, err := parseObject(text)
	if err != nil {
		return nil, err
	}
	out := map[string]string{}
	for _, col := range columns {
		v := firstOf(root, col, sources.CamelCase(col))
		if !v.Exists() {
			continue
		}
		out[col] = strings.Join(textList(v), "\n")
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: none of %s present", ErrMalformedReply, strings.Join(columns, ", "))
	}
	return out, nil
}

func firstOf(root gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := root.Get(k); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

// textList flattens a string or array value into trimmed, non-empty lines.
func textList(v gjson.Result) []string {
	var out []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	switch {
	case v.IsArray():
		for _, item := range v.Array() {
			if item.IsObject() {
				add(firstOf(item, "statement", "text").String())
				continue
			}
			add(item.String())
		}
	case v.Type == gjson.String:
		add(v.String())
	}
	return out
}
