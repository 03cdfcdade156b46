package domain

import "errors"

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrNotOwner        = errors.New("caller does not own record")
	ErrAdmissionDenied = errors.New("admission policy denied mint")
)
