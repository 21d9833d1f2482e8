// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package nmea

import "errors"

var (
	ErrEmptyInput        = errors.New("empty input")
	ErrParse             = errors.New("parse error")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrInsufficientData  = errors.New("insufficient data")
)

// ErrorKind returns a short name for the decoder error kind wrapped by err,
// or "unknown" when err is not one of the decoder errors.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrParse):
		return "parse_error"
	}
	return "unknown"
}
