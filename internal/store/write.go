package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Capture is one set of raw payloads fetched for a workflow instance.
type Capture struct {
	ID         string    `json:"id"`
	InstanceID string    `json:"instance_id"`
	CapturedAt time.Time `json:"captured_at"`
	Payloads   []Payload `json:"payloads,omitempty"`
}

// Payload is one raw API response, or the error the fetch failed with.
type Payload struct {
	Kind   string `json:"kind"`              // elsa operation name
	NodeID string `json:"node_id,omitempty"` // set for per-node history
	Body   []byte `json:"-"`
	Err    string `json:"error,omitempty"`
}

// timestampLayout is fixed-width so captured_at sorts chronologically as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// NewCaptureID returns a fresh capture id.
func NewCaptureID() string {
	return uuid.NewString()
}

// WriteCapture stores a capture and its payloads in one transaction.
// An empty ID is filled in with NewCaptureID; the stored id is returned.
// Writing a capture id twice fails with a constraint error.
func (s *Store) WriteCapture(ctx context.Context, c Capture) (string, error) {
	if c.InstanceID == "" {
		return "", errors.New("write capture: instance id is required")
	}
	if c.ID == "" {
		c.ID = NewCaptureID()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("write capture: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO captures (id, instance_id, captured_at)
		VALUES (?, ?, ?)
	`, c.ID, c.InstanceID, c.CapturedAt.UTC().Format(timestampLayout))
	if err != nil {
		return "", fmt.Errorf("write capture: %w", err)
	}

	for _, p := range c.Payloads {
		var body any
		if p.Err == "" {
			body = p.Body
		}
		var errText any
		if p.Err != "" {
			errText = p.Err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO payloads (capture_id, kind, node_id, body, error)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(capture_id, kind, node_id) DO UPDATE SET body = excluded.body, error = excluded.error
		`, c.ID, p.Kind, p.NodeID, body, errText)
		if err != nil {
			return "", fmt.Errorf("write capture payload %s: %w", p.Kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("write capture: commit: %w", err)
	}
	return c.ID, nil
}
