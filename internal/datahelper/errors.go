package datahelper

import "errors"

var (
	// ErrNotFound indicates a lookup that expected one row and found none.
	ErrNotFound = errors.New("datahelper: no matching row")
	// ErrMultipleRows indicates a lookup that expected one row and found several.
	ErrMultipleRows = errors.New("datahelper: more than one matching row")
	// ErrMappingNotFound indicates an account without an FSLI mapping for the engagement.
	ErrMappingNotFound = errors.New("datahelper: account mapping not found")
	// ErrFSLINotFound indicates a mapping that references an unknown FSLI.
	ErrFSLINotFound = errors.New("datahelper: fsli not found")
	// ErrInvalidDate indicates a date column holding a non-date value.
	ErrInvalidDate = errors.New("datahelper: value is not a date")
	// ErrUnexpectedResult indicates the executor returned the wrong number of tables.
	ErrUnexpectedResult = errors.New("datahelper: unexpected number of results")
)
