package pipeline

import (
	"context"
	"errors"
	"fmt"

	"rascaffold/internal/chunker"
	"rascaffold/internal/extractor"
	"rascaffold/internal/llm"
)

// Kind is the machine-readable failure classification exposed to callers.
type Kind string

const (
	KindExtractionFailed      Kind = "extraction_failed"
	KindChunkingConfigInvalid Kind = "chunking_config_invalid"
	KindGenerationCallFailed  Kind = "generation_call_failed"
	KindStageOutputUnparsable Kind = "stage_output_unparsable"
	KindCanceled              Kind = "canceled"
	KindInternal              Kind = "internal"
)

// Error is the only error type crossing the pipeline boundary: one
// human-readable message plus a machine-readable kind, never a raw internal
// payload.
type Error struct {
	Kind    Kind
	Stage   State
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (stage %s): %s", e.Kind, e.Stage, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Classify wraps a stage failure into the boundary Error with a
// caller-facing message.
func Classify(stage State, err error) *Error {
	var extErr *extractor.Error
	if errors.As(err, &extErr) {
		msg := fmt.Sprintf("the %s document could not be read", extErr.Format)
		if extErr.Cause == extractor.CauseEmpty {
			msg = fmt.Sprintf("the %s document contains no extractable text", extErr.Format)
		}
		return &Error{Kind: KindExtractionFailed, Stage: stage, Message: msg, Err: err}
	}

	var cfgErr *chunker.ConfigError
	if errors.As(err, &cfgErr) {
		return &Error{Kind: KindChunkingConfigInvalid, Stage: stage, Message: "chunking configuration is invalid: " + cfgErr.Msg, Err: err}
	}

	var parseErr *llm.ParseError
	if errors.As(err, &parseErr) {
		return &Error{Kind: KindStageOutputUnparsable, Stage: stage, Message: "the generation service returned output that could not be interpreted", Err: err}
	}

	var callErr *llm.CallError
	if errors.As(err, &callErr) {
		return &Error{Kind: KindGenerationCallFailed, Stage: stage, Message: "the generation service is unavailable", Err: err}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindCanceled, Stage: stage, Message: "the run was canceled", Err: err}
	}

	return &Error{Kind: KindInternal, Stage: stage, Message: "an internal error occurred", Err: err}
}
