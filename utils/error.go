package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ErrorValidation wraps request-shape failures rejected before any state
// change; handlers map it to a 400.
var ErrorValidation = errors.New("validation failed")

// ErrorReviewConflict is returned when a guarded proposal update matches the
// current status but another reviewer bumped the version first.
var ErrorReviewConflict = errors.New("proposal was changed by another reviewer")

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
