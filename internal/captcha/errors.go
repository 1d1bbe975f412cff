package captcha

import "errors"

var (
	ErrInvalidIndex        = errors.New("invalid index")
	ErrResourceUnavailable = errors.New("image resource unavailable")
	ErrMissingMessage      = errors.New("the message is required")
)
