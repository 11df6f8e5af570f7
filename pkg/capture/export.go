package capture

import (
	"context"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/calyptra/gatepatch/internal/errx"
)

// Export writes all records for a run to w as a CBOR record stream, one
// encoded Record per item, in insertion order. Returns the number of
// records written.
func (s *Store) Export(ctx context.Context, runID string, w io.Writer) (int, error) {
	records, err := s.ByRun(ctx, runID)
	if err != nil {
		return 0, err
	}

	enc := cbor.NewEncoder(w)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return i, errx.Wrap(ErrExport, err)
		}
	}
	return len(records), nil
}

// ReadExport decodes a CBOR record stream produced by Export.
func ReadExport(r io.Reader) ([]*Record, error) {
	dec := cbor.NewDecoder(r)
	var out []*Record
	for {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				return out, nil
			}
			return nil, errx.Wrap(ErrExport, err)
		}
		out = append(out, &rec)
	}
}
