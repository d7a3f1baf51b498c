package utils

import "errors"

var (
	ErrEmptyURL            = errors.New("URL cannot be empty")
	ErrInvalidURL          = errors.New("invalid URL format")
	ErrInvalidScheme       = errors.New("URL scheme must be http or https")
	ErrEmptyHost           = errors.New("URL host cannot be empty")
	ErrLocalhostNotAllowed = errors.New("localhost URLs are not allowed")
	ErrPrivateIPNotAllowed = errors.New("private IP addresses are not allowed")

	ErrAliasTooShort      = errors.New("alias is too short")
	ErrAliasTooLong       = errors.New("alias is too long")
	ErrAliasInvalidFormat = errors.New("alias must be alphanumeric with optional hyphens or underscores")
	ErrAliasPureNumber    = errors.New("alias cannot be purely numeric")
	ErrAliasReserved      = errors.New("alias is reserved")
)
