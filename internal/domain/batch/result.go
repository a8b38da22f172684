package batch

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK      ItemStatus = "ok"
	StatusError   ItemStatus = "error"
	StatusSkipped ItemStatus = "skipped"
)

// Result is the outcome of processing one item in a batch operation.
type Result struct {
	id     string
	status ItemStatus
	err    error
}

// NewOK creates a successful batch result.
func NewOK(id string) Result { return Result{id: id, status: StatusOK} }

// NewError creates a failed batch result.
func NewError(id string, err error) Result { return Result{id: id, status: StatusError, err: err} }

// NewSkipped creates a result for an item that was intentionally not written.
func NewSkipped(id string) Result { return Result{id: id, status: StatusSkipped} }

// ID returns the item identifier.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Summary counts results by status.
type Summary struct {
	OK      int
	Failed  int
	Skipped int
}

// Summarize tallies results by status.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.status {
		case StatusOK:
			s.OK++
		case StatusError:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		}
	}
	return s
}

// Failures returns only the failed results, preserving order.
func Failures(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.status == StatusError {
			out = append(out, r)
		}
	}
	return out
}
