package types

// ExtractResult holds the outcome of copying a single tagged file during
// extraction
type ExtractResult struct {
	SourcePath      string `json:"source_path"`
	DestinationPath string `json:"destination_path"`
	Copied          bool   `json:"copied"`
	Error           error  `json:"error,omitempty"`
}

// ExtractReport summarizes one extraction pass
type ExtractReport struct {
	ScopeDir    string          `json:"scope_dir"`
	Destination string          `json:"destination"`
	Results     []ExtractResult `json:"results"`
}

// Copied returns the number of files copied
func (r *ExtractReport) Copied() int {
	n := 0
	for _, res := range r.Results {
		if res.Copied {
			n++
		}
	}
	return n
}

// Failed returns the results that carry an error
func (r *ExtractReport) Failed() []ExtractResult {
	var failed []ExtractResult
	for _, res := range r.Results {
		if res.Error != nil {
			failed = append(failed, res)
		}
	}
	return failed
}
