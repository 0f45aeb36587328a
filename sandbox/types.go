package sandbox

// File is a named byte payload passed into or read back from an execution.
type File struct {
	Name string
	Data []byte
}

// Request describes one code execution.
type Request struct {
	// Code is the source text to run.
	Code string

	// InputFiles are written into the execution working directory before
	// the code runs.
	InputFiles []File
}

// Output is the captured outcome of one code execution.
//
// Invariant: when Error is non-empty, Stdout must not be trusted as
// structured output.
type Output struct {
	Stdout      string
	Stderr      string
	OutputFiles []File
	Error       string
}

// Failed reports whether the execution failed.
func (o Output) Failed() bool {
	return o.Error != ""
}

// OutputFile returns the named output file, if present.
func (o Output) OutputFile(name string) ([]byte, bool) {
	for _, f := range o.OutputFiles {
		if f.Name == name {
			return f.Data, true
		}
	}
	return nil, false
}
