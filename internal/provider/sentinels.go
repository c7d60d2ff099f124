package provider

import "errors"

var (
	errNilContainer    = errors.New("provider: nil container")
	errNotIndexable    = errors.New("provider: value is not indexable")
	errPropertyNotFound = errors.New("provider: property not found")
	errNotAssignable   = errors.New("provider: property is not assignable")
)
