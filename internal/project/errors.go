package project

import "errors"

var (
	// ErrInvalidInput wraps every validation failure of a CreateRequest.
	ErrInvalidInput = errors.New("invalid project input")
	// ErrDuplicate signals an insert with an ID that is already stored.
	ErrDuplicate = errors.New("project already exists")
)
