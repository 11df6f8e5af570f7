package transport

import "errors"

var (
	ErrGatewayClosed  = errors.New("transport: gateway is closed")
	ErrDialGateway    = errors.New("transport: dial gateway")
	ErrEncodeFrame    = errors.New("transport: encode frame")
	ErrDecodeFrame    = errors.New("transport: decode frame")
	ErrBuildRequest   = errors.New("transport: build http request")
	ErrPerformRequest = errors.New("transport: perform http request")
	ErrReadResponse   = errors.New("transport: read response body")
)
