package backup

import "context"

// TransferResult is the parsed telemetry of one sync invocation.
// A non-zero ExitCode is a normal result, not an error: errors from
// Transferer are reserved for failures to run the tool at all.
type TransferResult struct {
	ExitCode         int
	FilesTransferred int64
	FilesChecked     int64
	FilesDeleted     int64
	BytesTransferred int64
	TransferRateMBps float64
	ErrorCount       int
	Errors           []string
	Stdout           string
	Stderr           string
	Command          string
}

// Success reports whether the tool exited cleanly.
func (r *TransferResult) Success() bool { return r.ExitCode == 0 }

// ErrorMessage joins the collected error lines for log storage.
func (r *TransferResult) ErrorMessage() string {
	if len(r.Errors) == 0 {
		return ""
	}
	msg := r.Errors[0]
	for _, e := range r.Errors[1:] {
		msg += "; " + e
	}
	return msg
}

// Transferer runs one source-to-destination sync and reports its outcome.
type Transferer interface {
	Sync(ctx context.Context, source, destination string) (*TransferResult, error)
}
