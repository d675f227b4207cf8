package research

import (
	"errors"
	"fmt"

	"github.com/factlens/factlens/internal/llm"
)

// ConfigError indicates missing or invalid configuration. It is fatal and
// surfaced before any request is attempted.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// NoContentReason classifies why the search stage produced nothing
type NoContentReason string

const (
	ReasonSafety     NoContentReason = "safety"
	ReasonRecitation NoContentReason = "recitation"
	ReasonEmpty      NoContentReason = "empty"
)

// NoContentError indicates the search stage returned no usable text. Each
// reason carries a distinct user-facing message. Terminal; never retried.
type NoContentError struct {
	Reason NoContentReason
	Err    error
}

func (e *NoContentError) Error() string {
	return fmt.Sprintf("search stage produced no content (%s): %v", e.Reason, e.Err)
}

func (e *NoContentError) Unwrap() error {
	return e.Err
}

// UserMessage is the message shown to the user for this failure
func (e *NoContentError) UserMessage() string {
	switch e.Reason {
	case ReasonSafety:
		return "The research request was declined by the model's content safety filter. Try rephrasing the question."
	case ReasonRecitation:
		return "The model stopped to avoid reciting copyrighted source material. Try a broader question."
	default:
		return "The search stage returned no results. Try again or rephrase the question."
	}
}

// SynthesisError indicates the structuring stage returned nothing or output
// that fails the report contract. The raw research prose is deliberately not
// surfaced as a fallback. Terminal; never retried.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis stage failed to produce a structured report: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// UserMessage is the message shown to the user for this failure
func (e *SynthesisError) UserMessage() string {
	return "The model could not structure the research results. Try again."
}

// ClassifySearchError maps provider sentinels to the error taxonomy
func ClassifySearchError(err error) error {
	switch {
	case errors.Is(err, llm.ErrBlockedSafety):
		return &NoContentError{Reason: ReasonSafety, Err: err}
	case errors.Is(err, llm.ErrBlockedRecitation):
		return &NoContentError{Reason: ReasonRecitation, Err: err}
	case errors.Is(err, llm.ErrEmptyResponse):
		return &NoContentError{Reason: ReasonEmpty, Err: err}
	default:
		return err
	}
}
