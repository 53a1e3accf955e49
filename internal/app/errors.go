package app

import (
	"errors"
	"fmt"
)

// StatusCSRFMismatch is the non-standard "page expired" status used for a
// missing or wrong anti-forgery token.
const StatusCSRFMismatch = 419

var (
	ErrCSRF            = errors.New("csrf")
	ErrBadID           = errors.New("bad id")
	ErrNothingToUpdate = errors.New("nothing to update")
	ErrUnknownAction   = errors.New("unknown action")
)

// FieldError is a validation failure the client shows next to one input.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

const (
	msgTitleRequired = "Title is required"
	msgTitleNotText  = "Title must be text"
	msgDoneNotBool   = "Done must be a boolean"
)
