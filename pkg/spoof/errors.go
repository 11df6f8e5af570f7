package spoof

import "errors"

var (
	errDecodeGatewayInfo = errors.New("spoof: decode gateway info response")
	errEncodeGatewayInfo = errors.New("spoof: encode gateway info response")
)
