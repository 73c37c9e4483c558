package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicate indicates a uniqueness conflict.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrSelfDelete occurs when an admin attempts to delete their own account.
	ErrSelfDelete = errors.New("cannot delete own account")
	// ErrUnknownKPI occurs when a KPI code is not one of the ten defined codes.
	ErrUnknownKPI = errors.New("unknown kpi code")
)
