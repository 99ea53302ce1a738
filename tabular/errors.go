package tabular

import "errors"

var (
	// ErrParse indicates the upload could not be parsed as a table
	// under any of the supported formats and encodings.
	ErrParse = errors.New("malformed tabular upload")
)
