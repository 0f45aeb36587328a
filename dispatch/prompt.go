package dispatch

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/srtux/sre-agent-sub004/gate"
	"github.com/srtux/sre-agent-sub004/sandbox"
)

const (
	sampleLimit     = 3
	sampleCharLimit = 2000
)

// Prompt is a code-generation prompt: a compact sample of the oversized
// result plus an inferred schema and instructions, so the consumer can
// author ad-hoc analysis code to run through the engine's ad-hoc path.
type Prompt struct {
	TotalCount   int               `json:"total_count"`
	DataSample   []string          `json:"data_sample"`
	Schema       map[string]string `json:"schema,omitempty"`
	Instructions string            `json:"instructions"`
}

// BuildPrompt builds a code-generation prompt for a result of the given
// measured size. It requires no external resources and never fails.
func BuildPrompt(result any, size gate.Size) Prompt {
	p := Prompt{TotalCount: size.Items}

	switch t := result.(type) {
	case []any:
		for _, item := range t {
			if len(p.DataSample) == sampleLimit {
				break
			}
			p.DataSample = append(p.DataSample, clip(encode(item)))
		}
		if len(t) > 0 {
			p.Schema = inferSchema(t[0])
		}
	case map[string]any:
		p.DataSample = append(p.DataSample, clip(encode(t)))
		p.Schema = inferSchema(t)
	default:
		p.DataSample = append(p.DataSample, clip(encode(result)))
	}

	p.Instructions = instructions(size)
	return p
}

var titleCaser = cases.Title(language.English)

func instructions(size gate.Size) string {
	kind := titleCaser.String(string(size.Kind))
	return fmt.Sprintf(
		"%s result with %d items (%d characters serialized) was too large to return directly. "+
			"Write Python code that reads the complete result from a variable named %q, computes a "+
			"compact JSON-serializable summary (counts, groupings, extremes, small samples), and prints "+
			"it with print(json.dumps(summary)). Use only the samples above to understand the record "+
			"shape; the code will receive the full data when it runs.",
		kind, size.Items, size.Chars, sandbox.DefaultVariable)
}

// inferSchema maps field names of a sample record to coarse value kinds.
func inferSchema(sample any) map[string]string {
	record, ok := sample.(map[string]any)
	if !ok {
		return nil
	}
	schema := make(map[string]string, len(record))
	for name, value := range record {
		schema[name] = valueKind(value)
	}
	return schema
}

func valueKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct, reflect.Pointer:
		return "object"
	case reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "number"
	}
	return "string"
}

func encode(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func clip(s string) string {
	if len(s) <= sampleCharLimit {
		return s
	}
	return strings.ToValidUTF8(s[:sampleCharLimit], "")
}
