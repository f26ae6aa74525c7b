// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

var (
	// ErrInvalidArgument reports an unknown metric, method, or criterion.
	// It is fatal to the call and never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMalformedResponse reports a generative backend response that does
	// not parse into a complete hypothesis.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrNotFound reports a concept absent from the snapshot. Callers in
	// this module recover by returning an empty result.
	ErrNotFound = errors.New("not found")
)
