package service

import "errors"

// ErrValidation marks request payloads that fail domain validation. The
// HTTP layer maps it to 400.
var ErrValidation = errors.New("validation failed")
