package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNoSave is returned when a save name has no co-save.
var ErrNoSave = errors.New("no such save")

// SaveSlots replaces every slot value stored under saveName.
func (s *Store) SaveSlots(ctx context.Context, saveName string, values map[string]float64) error {
	return s.inTx(ctx, "save slots", func(tx *sql.Tx) error {
		return putSlots(ctx, tx, saveName, values)
	})
}

// WriteSave stores a whole save: the co-save blob and the slot values,
// in one transaction. On error neither is changed.
func (s *Store) WriteSave(ctx context.Context, saveName string, cosave []byte, values map[string]float64) error {
	return s.inTx(ctx, "write save", func(tx *sql.Tx) error {
		if err := putCosave(ctx, tx, saveName, cosave); err != nil {
			return err
		}
		return putSlots(ctx, tx, saveName, values)
	})
}

func (s *Store) inTx(ctx context.Context, op string, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func putSlots(ctx context.Context, tx *sql.Tx, saveName string, values map[string]float64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM slots WHERE save_name = ?`, saveName); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO slots (save_name, name, value) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for name, v := range values {
		if _, err := stmt.ExecContext(ctx, saveName, name, v); err != nil {
			return fmt.Errorf("slot %q: %w", name, err)
		}
	}
	return nil
}

func putCosave(ctx context.Context, tx *sql.Tx, saveName string, data []byte) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO cosaves (save_name, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(save_name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, saveName, data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("cosave: %w", err)
	}
	return nil
}

// LoadSlots returns the slot values stored under saveName.
// An unknown save yields an empty map.
func (s *Store) LoadSlots(ctx context.Context, saveName string) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, value FROM slots
		WHERE save_name = ?
		ORDER BY name ASC
	`, saveName)
	if err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}
	defer rows.Close()

	values := make(map[string]float64)
	for rows.Next() {
		var name string
		var v float64
		if err := rows.Scan(&name, &v); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		values[name] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}
	return values, nil
}

// WriteCosave stores the co-save blob for saveName, replacing any
// previous one.
func (s *Store) WriteCosave(ctx context.Context, saveName string, data []byte) error {
	return s.inTx(ctx, "write cosave", func(tx *sql.Tx) error {
		return putCosave(ctx, tx, saveName, data)
	})
}

// ReadCosave returns the co-save blob for saveName, or ErrNoSave.
func (s *Store) ReadCosave(ctx context.Context, saveName string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM cosaves WHERE save_name = ?`, saveName).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNoSave, saveName)
	}
	if err != nil {
		return nil, fmt.Errorf("read cosave: %w", err)
	}
	return data, nil
}

// DeleteSave removes the slots and co-save stored under saveName.
func (s *Store) DeleteSave(ctx context.Context, saveName string) error {
	return s.inTx(ctx, "delete save", func(tx *sql.Tx) error {
		for _, q := range []string{
			`DELETE FROM slots WHERE save_name = ?`,
			`DELETE FROM cosaves WHERE save_name = ?`,
		} {
			if _, err := tx.ExecContext(ctx, q, saveName); err != nil {
				return err
			}
		}
		return nil
	})
}
