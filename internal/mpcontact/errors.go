package mpcontact

import (
	"errors"
	"fmt"
)

// Messages shown to the user. They match the copy used on the campaign site.
const (
	MsgEmptyPostcode     = "Please enter a postcode"
	MsgNoConcerns        = "Please select at least one concern"
	MsgLookupFailed      = "Failed to lookup MP"
	MsgGenerateFailed    = "Failed to generate email"
	MsgLookupUnreachable = "We couldn't reach the MP lookup service. Please check your connection and try again."
	MsgDraftUnreachable  = "We couldn't reach the email service. Please check your connection and try again."
)

var (
	// ErrBusy is returned when a lookup or generation is already in flight.
	ErrBusy = errors.New("mpcontact: a request is already in progress")
	// ErrWrongStep is returned when an action is not valid in the current step.
	ErrWrongStep = errors.New("mpcontact: action not available at this step")
	// ErrClosed is returned by a wizard that has been abandoned.
	ErrClosed = errors.New("mpcontact: wizard closed")
	// ErrUnknownConcern is returned for identifiers outside the fixed set.
	ErrUnknownConcern = errors.New("mpcontact: unknown concern")
	// ErrUnknownField is returned for copy requests naming no message field.
	ErrUnknownField = errors.New("mpcontact: unknown message field")
	// ErrDiscarded is the result of an operation that outlived its wizard state.
	ErrDiscarded = errors.New("mpcontact: result discarded")
)

// ValidationError is detected locally and never reaches the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// ServiceError means the collaborator answered, but not with success.
// Message is the service-provided text or the fallback for the call.
type ServiceError struct {
	Operation string
	Status    int
	Message   string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: service status %d: %s", e.Operation, e.Status, e.Message)
}

// TransportError means no response was received at all.
type TransportError struct {
	Operation string
	Message   string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UserMessage returns the single human-readable string to show for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var serr *ServiceError
	if errors.As(err, &serr) {
		return serr.Message
	}
	var terr *TransportError
	if errors.As(err, &terr) {
		return terr.Message
	}
	switch {
	case errors.Is(err, ErrBusy):
		return "Please wait for the current request to finish."
	case errors.Is(err, ErrUnknownConcern):
		return "That concern is not one of the options."
	}
	return "Something went wrong. Please try again."
}
