package captcha

import (
	"fmt"
	"strconv"
)

// ParseIndex parses a raw query value into a position of a challenge with
// length tiles. Only unsigned decimal digits are accepted: no sign, no
// surrounding space. Anything else, or a value outside [0, length), is
// rejected with ErrInvalidIndex.
func ParseIndex(raw string, length int) (int, error) {
	if raw == "" {
		return 0, fmt.Errorf("%w: missing", ErrInvalidIndex)
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return 0, fmt.Errorf("%w: %q is not a decimal integer", ErrInvalidIndex, raw)
		}
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidIndex, raw)
	}
	if i >= length {
		return 0, fmt.Errorf("%w: %d out of range [0,%d)", ErrInvalidIndex, i, length)
	}
	return i, nil
}
