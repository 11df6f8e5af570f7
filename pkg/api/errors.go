package api

import "errors"

var (
	// ErrHookPointMissing means a hook point the interception layer
	// depends on is absent from the wrapped transport or REST client.
	// Fatal at attach time: running unpatched would break the
	// protocol-compatibility contract.
	ErrHookPointMissing = errors.New("interception hook point missing")

	ErrFrameDecode = errors.New("decode gateway frame payload")
	ErrFrameEncode = errors.New("encode gateway frame payload")
)
