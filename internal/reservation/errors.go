package reservation

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoGuestInfo      = errors.New("no guest information provided")
	ErrAlreadySubmitted = errors.New("this reservation has already been submitted")
)

// AlreadySubmittedError carries the timestamp of the submission that won.
type AlreadySubmittedError struct {
	SubmittedAt *time.Time
}

func (e *AlreadySubmittedError) Error() string {
	return ErrAlreadySubmitted.Error()
}

func (e *AlreadySubmittedError) Is(target error) bool {
	return target == ErrAlreadySubmitted
}

type MaxGuestsError struct {
	Max int
}

func (e *MaxGuestsError) Error() string {
	return fmt.Sprintf("cannot exceed the maximum number of guests (%d)", e.Max)
}

// ValidationError names the first guest field that failed its rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
