// Package capture persists a history of intercepted traffic to a local
// sqlite database. The patch registry itself stays in memory; capture is
// an observation log, not configuration state.
package capture

import (
	"context"
	"database/sql"
	"time"

	"github.com/calyptra/gatepatch/internal/errx"
	"github.com/calyptra/gatepatch/pkg/api"
)

// Record kinds.
const (
	KindGateway = "gateway"
	KindREST    = "rest"
)

// Record is one captured frame or request.
type Record struct {
	ID        int64     `cbor:"id"`
	RunID     string    `cbor:"run_id"`
	At        time.Time `cbor:"at"`
	Kind      string    `cbor:"kind"`
	Direction string    `cbor:"direction,omitempty"`
	Op        int       `cbor:"op,omitempty"`
	Event     string    `cbor:"event,omitempty"`
	Method    string    `cbor:"method,omitempty"`
	Route     string    `cbor:"route,omitempty"`
	Status    int       `cbor:"status,omitempty"`
	BodyBytes int64     `cbor:"body_bytes"`
	Summary   string    `cbor:"summary,omitempty"`
}

// Store is a sqlite-backed capture log. Safe for concurrent use; sqlite
// serializes writers and the connection pool handles readers.
type Store struct {
	db    *sql.DB
	runID string
}

// Open creates or opens a capture database at path and applies pending
// migrations.
func Open(path, runID string) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, runID: runID}, nil
}

// RecordFrame logs one gateway frame passing an interception point.
func (s *Store) RecordFrame(ctx context.Context, direction string, f *api.Frame) error {
	if f == nil {
		return nil
	}
	return s.insert(ctx, &Record{
		Kind:      KindGateway,
		Direction: direction,
		Op:        int(f.Op),
		Event:     f.T,
		BodyBytes: int64(len(f.D)),
		Summary:   direction + " " + f.Op.String(),
	})
}

// RecordRequest logs one REST request/response pair.
func (s *Store) RecordRequest(ctx context.Context, req *api.RouteRequest, resp *api.Response) error {
	rec := &Record{
		Kind:   KindREST,
		Method: req.Method,
		Route:  req.Route,
	}
	if resp != nil {
		rec.Status = resp.StatusCode
		rec.BodyBytes = int64(len(resp.Body))
	}
	rec.Summary = req.Method + " " + req.Route
	return s.insert(ctx, rec)
}

func (s *Store) insert(ctx context.Context, rec *Record) error {
	rec.RunID = s.runID
	rec.At = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO records (run_id, at, kind, direction, op, event, method, route, status, body_bytes, summary)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.At.Format(time.RFC3339Nano), rec.Kind, rec.Direction,
		rec.Op, rec.Event, rec.Method, rec.Route, rec.Status, rec.BodyBytes, rec.Summary)
	if err != nil {
		return errx.Wrap(ErrWriteRecord, err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, run_id, at, kind, direction, op, event, method, route, status, body_bytes, summary
FROM records ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errx.Wrap(ErrReadRecords, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ByRun returns all records for a run in insertion order.
func (s *Store) ByRun(ctx context.Context, runID string) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, run_id, at, kind, direction, op, event, method, route, status, body_bytes, summary
FROM records WHERE run_id = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, errx.Wrap(ErrReadRecords, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Prune deletes records older than the cutoff and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE at < ?`,
		olderThan.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, errx.Wrap(ErrPrune, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func scanRecords(rows *sql.Rows) ([]*Record, error) {
	var out []*Record
	for rows.Next() {
		var rec Record
		var at string
		if err := rows.Scan(&rec.ID, &rec.RunID, &at, &rec.Kind, &rec.Direction,
			&rec.Op, &rec.Event, &rec.Method, &rec.Route, &rec.Status,
			&rec.BodyBytes, &rec.Summary); err != nil {
			return nil, errx.Wrap(ErrReadRecords, err)
		}
		rec.At, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.Wrap(ErrReadRecords, err)
	}
	return out, nil
}
