package pipeline

import (
	"errors"
	"fmt"
	"net/http"

	llmclient "nexa/internal/llmClient"
)

type Stage string

const (
	StageRefine   Stage = "refine"
	StageSpec     Stage = "spec"
	StageGenerate Stage = "generate"
	// StageChoose maps a concept to a spec without a model call.
	StageChoose Stage = "choose"
)

// Kind groups error codes by who is at fault.
type Kind int

const (
	// KindValidation: the caller sent unusable input.
	KindValidation Kind = iota + 1
	// KindUpstream: the model service failed after all retries.
	KindUpstream
	// KindParse: the model answered in a shape we could not read.
	KindParse
	// KindStructural: the answer was readable but broke a hard constraint.
	KindStructural
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUpstream:
		return "upstream"
	case KindParse:
		return "parse"
	case KindStructural:
		return "structural"
	}
	return "unknown"
}

type Code string

const (
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeInvalidSelection   Code = "INVALID_SELECTION"
	CodeConceptNotFound    Code = "CONCEPT_NOT_FOUND"
	CodeMissingProductSpec Code = "MISSING_PRODUCT_SPEC"
	CodeInvalidProductSpec Code = "INVALID_PRODUCT_SPEC"
	CodeIncompleteConcept  Code = "INCOMPLETE_CONCEPT"
	CodeUpstreamFailure    Code = "UPSTREAM_FAILURE"
	CodeConfigurationError Code = "CONFIGURATION_ERROR"
	CodeParseFailure       Code = "PARSE_FAILURE"
	CodeCardinalityFailure Code = "CARDINALITY_FAILURE"
	CodeSpecBuildError     Code = "SPEC_BUILD_ERROR"
	CodeNoSections         Code = "NO_SECTIONS"
	CodeInvalidStructure   Code = "INVALID_STRUCTURE"
)

var codeStatus = map[Code]int{
	CodeInvalidInput:       http.StatusBadRequest,
	CodeInvalidSelection:   http.StatusBadRequest,
	CodeConceptNotFound:    http.StatusBadRequest,
	CodeMissingProductSpec: http.StatusBadRequest,
	CodeInvalidProductSpec: http.StatusBadRequest,
	CodeIncompleteConcept:  http.StatusBadRequest,
	CodeCardinalityFailure: http.StatusUnprocessableEntity,
	CodeSpecBuildError:     http.StatusUnprocessableEntity,
	CodeUpstreamFailure:    http.StatusInternalServerError,
	CodeConfigurationError: http.StatusInternalServerError,
	CodeParseFailure:       http.StatusInternalServerError,
	CodeNoSections:         http.StatusInternalServerError,
	CodeInvalidStructure:   http.StatusInternalServerError,
}

// Error is the single failure type of every stage. Message is safe to show
// to the caller; Err keeps the cause for logs.
type Error struct {
	Stage   Stage
	Kind    Kind
	Code    Code
	Message string
	// Missing lists absent field names, in schema order.
	Missing []string
	// Retry tells the caller that running the stage again may succeed.
	Retry bool
	// Details carries diagnostic text such as the offending raw value.
	Details string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Stage, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the error code to an HTTP status.
func (e *Error) Status() int {
	if s, ok := codeStatus[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// AsError extracts a stage error from err's chain.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

func validationError(stage Stage, code Code, msg string) *Error {
	return &Error{Stage: stage, Kind: KindValidation, Code: code, Message: msg}
}

var upstreamMessages = map[Stage]string{
	StageRefine:   "Failed to refine idea. Please try again.",
	StageSpec:     "Failed to build product specification. Please try again.",
	StageGenerate: "Failed to generate product. Please try again.",
}

// upstreamError classifies a model caller failure. A misconfigured client
// is reported separately so operators can tell it apart from an outage.
func upstreamError(stage Stage, err error) *Error {
	if errors.Is(err, llmclient.ErrConfiguration) {
		return &Error{
			Stage:   stage,
			Kind:    KindUpstream,
			Code:    CodeConfigurationError,
			Message: "Service configuration error. Please contact support.",
			Err:     err,
		}
	}
	return &Error{
		Stage:   stage,
		Kind:    KindUpstream,
		Code:    CodeUpstreamFailure,
		Message: upstreamMessages[stage],
		Retry:   true,
		Err:     err,
	}
}
