package domain

import "time"

type FailureReason string

const (
	ReasonNone                        FailureReason = ""
	ReasonDestinationAllocationFailed FailureReason = "destination_allocation_failed"
	ReasonCopyFailed                  FailureReason = "copy_failed"
	ReasonMetadataWriteFailed         FailureReason = "metadata_write_failed"
)

// Outcome is the result of one batch item. The zero value is a success.
type Outcome struct {
	Reason FailureReason
	Err    error
}

func Success() Outcome {
	return Outcome{}
}

func Failure(reason FailureReason, err error) Outcome {
	return Outcome{Reason: reason, Err: err}
}

func (o Outcome) OK() bool {
	return o.Reason == ReasonNone
}

func (o Outcome) String() string {
	if o.OK() {
		return "success"
	}
	return string(o.Reason)
}

type BatchItem struct {
	Index           int
	Source          string
	DestinationName string
	Location        string
	Outcome         Outcome
}

type BatchResult struct {
	RunID     string
	StartedAt time.Time
	Total     int
	Succeeded int
	Items     []BatchItem
	Cancelled bool
}

func (r BatchResult) Failed() int {
	failed := 0
	for _, item := range r.Items {
		if !item.Outcome.OK() {
			failed++
		}
	}
	return failed
}

// Failures returns the items that did not succeed, in input order.
func (r BatchResult) Failures() []BatchItem {
	var out []BatchItem
	for _, item := range r.Items {
		if !item.Outcome.OK() {
			out = append(out, item)
		}
	}
	return out
}
