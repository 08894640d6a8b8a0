package fileshare

import "errors"

var (
	// ErrIO reports that an underlying read, write or listing did not complete.
	ErrIO = errors.New("fileshare: i/o failure")

	// ErrValidation reports a document that is malformed or incomplete for its status.
	ErrValidation = errors.New("fileshare: invalid metadata")

	// ErrNotFound reports a record without a sidecar or asset.
	ErrNotFound = errors.New("fileshare: record not found")

	// ErrStatus reports a record at the wrong lifecycle status for the operation.
	ErrStatus = errors.New("fileshare: unexpected status")
)
