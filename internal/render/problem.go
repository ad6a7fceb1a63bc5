// Package render turns evaluation rows and load errors into diagnostics:
// the {{...}} per-result templates of §4.3 rendered into human and JSON
// output, and the Problem error payload used throughout the CLI surface.
package render

import "encoding/json"

// Error codes for Problem.Code, covering the load and evaluation failures
// a run can surface (§7).
const (
	ErrInvalidQuery   = "ERR_INVALID_QUERY"
	ErrInvalidRule    = "ERR_INVALID_RULE"
	ErrEvaluation     = "ERR_EVALUATION"
	ErrIngestion      = "ERR_INGESTION"
	ErrIO             = "ERR_IO"
	ErrInvalidTemplate = "ERR_INVALID_TEMPLATE"
)

// Problem is the uniform error payload for both human and JSON output,
// carried by the runner and the CLI alike.
type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (p Problem) Error() string {
	if p.Detail != "" {
		return p.Message + ": " + p.Detail
	}
	return p.Message
}

func (p Problem) String() string { return p.Error() }

// JSON renders the problem as a single-line JSON object.
func (p Problem) JSON() string {
	b, _ := json.Marshal(p)
	return string(b)
}

// Wrap builds a Problem carrying an inner error as its Detail.
func Wrap(code, msg string, inner error) Problem {
	return Problem{Code: code, Message: msg, Detail: inner.Error()}
}
