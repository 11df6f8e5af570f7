package main

import "errors"

var (
	ErrTokenRequired  = errors.New("token required (--token or GATEPATCH_TOKEN)")
	ErrOpenEventLog   = errors.New("open event log")
	ErrOpenCapture    = errors.New("open capture database")
	ErrConnectGateway = errors.New("connect gateway")
	ErrFetchGateway   = errors.New("fetch gateway url")
	ErrCaptureArgs    = errors.New("capture: --db and --run are required")
	ErrCaptureExport  = errors.New("capture: export")
)
