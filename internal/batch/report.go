package batch

import "github.com/Rana718/querygraft/internal/descriptor"

// Entry is the encoded form of one Result.
type Entry struct {
	Name       string               `json:"name" yaml:"name"`
	Cmd        string               `json:"cmd,omitempty" yaml:"cmd,omitempty"`
	File       string               `json:"file" yaml:"file"`
	Line       int                  `json:"line" yaml:"line"`
	Descriptor *descriptor.Document `json:"descriptor,omitempty" yaml:"descriptor,omitempty"`
	Error      string               `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report converts results for descriptor.Encode.
func Report(results []Result) []Entry {
	entries := make([]Entry, 0, len(results))
	for _, r := range results {
		e := Entry{Name: r.Query.Name, Cmd: r.Query.Cmd, File: r.Query.File, Line: r.Query.Line}
		if r.Err != nil {
			e.Error = r.Err.Error()
		} else if r.Descriptor != nil {
			doc := r.Descriptor.Document()
			e.Descriptor = &doc
		}
		entries = append(entries, e)
	}
	return entries
}
