package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrNoKeyPrice     = errors.New("no key price available")
	ErrInvalidOptions = errors.New("invalid options")
)
