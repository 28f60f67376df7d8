package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrCaptureNotFound is returned when no capture matches a lookup.
var ErrCaptureNotFound = errors.New("capture not found")

// ReadCapture returns a capture with all of its payloads.
func (s *Store) ReadCapture(ctx context.Context, id string) (Capture, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, instance_id, captured_at
		FROM captures
		WHERE id = ?
	`, id)
	c, err := scanCapture(row)
	if err != nil {
		return Capture{}, fmt.Errorf("read capture %s: %w", id, err)
	}

	payloads, err := s.readPayloads(ctx, c.ID)
	if err != nil {
		return Capture{}, err
	}
	c.Payloads = payloads
	return c, nil
}

// LatestCapture returns the most recent capture of an instance.
func (s *Store) LatestCapture(ctx context.Context, instanceID string) (Capture, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id
		FROM captures
		WHERE instance_id = ?
		ORDER BY captured_at DESC, id COLLATE BINARY DESC
		LIMIT 1
	`, instanceID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return Capture{}, fmt.Errorf("latest capture for %s: %w", instanceID, ErrCaptureNotFound)
	}
	if err != nil {
		return Capture{}, fmt.Errorf("latest capture for %s: %w", instanceID, err)
	}
	return s.ReadCapture(ctx, id)
}

// ListCaptures returns capture headers, newest first, without payloads.
// Returns an empty slice (not nil) when the store is empty.
func (s *Store) ListCaptures(ctx context.Context) ([]Capture, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, instance_id, captured_at
		FROM captures
		ORDER BY captured_at DESC, id COLLATE BINARY DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query captures: %w", err)
	}
	defer rows.Close()

	captures := []Capture{}
	for rows.Next() {
		c, err := scanCapture(rows)
		if err != nil {
			return nil, err
		}
		captures = append(captures, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate captures: %w", err)
	}
	return captures, nil
}

func (s *Store) readPayloads(ctx context.Context, captureID string) ([]Payload, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, node_id, body, error
		FROM payloads
		WHERE capture_id = ?
		ORDER BY kind COLLATE BINARY ASC, node_id COLLATE BINARY ASC
	`, captureID)
	if err != nil {
		return nil, fmt.Errorf("query payloads: %w", err)
	}
	defer rows.Close()

	payloads := []Payload{}
	for rows.Next() {
		var (
			p       Payload
			body    []byte
			errText sql.NullString
		)
		if err := rows.Scan(&p.Kind, &p.NodeID, &body, &errText); err != nil {
			return nil, fmt.Errorf("scan payload: %w", err)
		}
		p.Body = body
		p.Err = errText.String
		payloads = append(payloads, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payloads: %w", err)
	}
	return payloads, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCapture(row scanner) (Capture, error) {
	var (
		c  Capture
		at string
	)
	if err := row.Scan(&c.ID, &c.InstanceID, &at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Capture{}, ErrCaptureNotFound
		}
		return Capture{}, fmt.Errorf("scan capture: %w", err)
	}
	t, err := time.Parse(timestampLayout, at)
	if err != nil {
		return Capture{}, fmt.Errorf("scan capture: captured_at %q: %w", at, err)
	}
	c.CapturedAt = t
	return c, nil
}
