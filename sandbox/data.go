package sandbox

import (
	"context"
	"encoding/json"
	"fmt"
)

// DefaultVariable is the name under which input data is exposed to code.
const DefaultVariable = "data"

// InputFileName is the name of the serialized input file.
const InputFileName = "input.json"

// ExecuteData serializes data to a JSON input file, prepends a loader
// snippet that reads the file into the named variable, and executes the
// combined code in env. An empty variable name means DefaultVariable.
func ExecuteData(ctx context.Context, env Environment, data any, code, variable string) (Output, error) {
	if variable == "" {
		variable = DefaultVariable
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return Output{}, fmt.Errorf("encode input data: %w", err)
	}
	req := Request{
		Code:       loaderSnippet(variable) + code,
		InputFiles: []File{{Name: InputFileName, Data: payload}},
	}
	return env.Execute(ctx, req)
}

func loaderSnippet(variable string) string {
	return fmt.Sprintf("import json\nwith open(%q) as _in:\n    %s = json.load(_in)\n\n", InputFileName, variable)
}
