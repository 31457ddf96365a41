package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// DecisionRecord is one committed decision in the log.
// Payload is the decision encoded as JSON.
type DecisionRecord struct {
	Seq     int64
	Token   string
	Context string
	Payload []byte
}

// WriteDecision appends a decision. Duplicate seq or token is an error:
// the log is append-only and a decision is committed once.
//
// The payload is compacted before storage so identical decisions produce
// identical rows.
func (s *Store) WriteDecision(ctx context.Context, rec DecisionRecord) error {
	payload, err := compactPayload(rec.Payload)
	if err != nil {
		return fmt.Errorf("write decision: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO decisions (seq, token, context_id, payload)
		VALUES (?, ?, ?, ?)
	`, rec.Seq, rec.Token, rec.Context, payload)
	if err != nil {
		return fmt.Errorf("write decision: %w", err)
	}
	return nil
}

// ReadDecisions returns the decisions of contextID in seq order.
// An empty contextID returns every context. limit <= 0 means no limit.
func (s *Store) ReadDecisions(ctx context.Context, contextID string, limit int) ([]DecisionRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, token, context_id, payload FROM decisions
		WHERE ? = '' OR context_id = ?
		ORDER BY seq ASC
		LIMIT ?
	`, contextID, contextID, limit)
	if err != nil {
		return nil, fmt.Errorf("read decisions: %w", err)
	}
	defer rows.Close()

	var out []DecisionRecord
	for rows.Next() {
		var rec DecisionRecord
		var payload string
		if err := rows.Scan(&rec.Seq, &rec.Token, &rec.Context, &payload); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		rec.Payload = []byte(payload)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}
	return out, nil
}

// LastSeq returns the highest logged seq, or 0 for an empty log.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM decisions`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

func compactPayload(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "{}", nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", fmt.Errorf("compact payload: %w", err)
	}
	return buf.String(), nil
}
