package harness

// Check names.
const (
	CheckEncode = "encode"
	CheckDecode = "decode"
	CheckJSON   = "json"
	CheckReject = "reject"
)

// CaseResult is the outcome of one check of one vector.
type CaseResult struct {
	Seq      int64  `json:"seq"`
	Vector   string `json:"vector"`
	Encoding string `json:"encoding"`
	Check    string `json:"check"`
	Pass     bool   `json:"pass"`
	Error    string `json:"error,omitempty"`
}

// Result is the outcome of a suite.
type Result struct {
	Suite string `json:"suite"`

	// Pass is true if every case passed.
	Pass bool `json:"pass"`

	Cases []CaseResult `json:"cases"`
}

// NewResult creates a passing result with no cases.
func NewResult(suite string) *Result {
	return &Result{Suite: suite, Pass: true, Cases: []CaseResult{}}
}

func (r *Result) add(c CaseResult) {
	if !c.Pass {
		r.Pass = false
	}
	r.Cases = append(r.Cases, c)
}

// Failures returns the failed cases.
func (r *Result) Failures() []CaseResult {
	var out []CaseResult
	for _, c := range r.Cases {
		if !c.Pass {
			out = append(out, c)
		}
	}
	return out
}
