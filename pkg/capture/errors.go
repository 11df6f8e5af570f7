package capture

import "errors"

var (
	ErrOpenStore   = errors.New("capture: open store")
	ErrMigrate     = errors.New("capture: apply migrations")
	ErrWriteRecord = errors.New("capture: write record")
	ErrReadRecords = errors.New("capture: read records")
	ErrPrune       = errors.New("capture: prune records")
	ErrExport      = errors.New("capture: export records")
)
