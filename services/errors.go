package services

import (
	"errors"
	"fmt"
)

// Error taxonomy for the pipeline. Guard rejections and unknown documents
// are normal business outcomes that the controller recovers into a
// well-formed response body; the collaborator faults below are real
// failures and propagate to the caller so that an empty answer is never
// mistaken for a genuine "no information found".
var (
	// ErrNotFound marks a document ID unknown to the store. Checked as a
	// precondition, before the security screen runs.
	ErrNotFound = errors.New("document not found")

	// ErrEmbedding marks an unreachable or malformed embedding capability.
	ErrEmbedding = errors.New("embedding request failed")

	// ErrGeneration marks an unreachable generation capability or one
	// whose output could not be used at all.
	ErrGeneration = errors.New("generation request failed")

	// ErrTimeout marks an external call that exceeded its deadline.
	ErrTimeout = errors.New("external call timed out")

	// ErrSchema marks generation output from which no summary or key
	// points could be extracted. Distinct from ErrGeneration so callers
	// can tell "the model answered badly" from "the system is down".
	ErrSchema = errors.New("answer did not match the expected schema")
)

// StageError is a pipeline failure tied to the stage that produced it. It
// carries the trace of the stages that did complete so the caller still
// gets partial observability on a failed request.
type StageError struct {
	Stage string
	Trace []string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
