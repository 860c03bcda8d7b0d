package chat

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/learnhub/backend/internal/docstore"
	"github.com/learnhub/backend/internal/model/chat"
)

// SQLiteStore persists history so it survives restarts and is shared by
// processes on one host.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the history database at path.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := docstore.OpenSQLite(path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS chat_turns (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		room TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		participant_id TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_turns_room ON chat_turns(room, seq);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize chat schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, room string) ([]chat.Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, participant_id, created_at FROM chat_turns WHERE room = ? ORDER BY seq`, room)
	if err != nil {
		return nil, fmt.Errorf("query chat turns: %w", err)
	}
	defer rows.Close()

	turns := make([]chat.Turn, 0)
	for rows.Next() {
		var turn chat.Turn
		var createdAt int64
		if err := rows.Scan(&turn.Role, &turn.Content, &turn.ParticipantID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan chat turn: %w", err)
		}
		turn.Timestamp = time.UnixMilli(createdAt).UTC()
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

func (s *SQLiteStore) Append(ctx context.Context, room string, turns ...chat.Turn) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	for _, turn := range turns {
		if turn.Timestamp.IsZero() {
			turn.Timestamp = time.Now().UTC()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO chat_turns (room, role, content, participant_id, created_at) VALUES (?, ?, ?, ?, ?)`,
			room, turn.Role, turn.Content, turn.ParticipantID, turn.Timestamp.UnixMilli())
		if err != nil {
			return fmt.Errorf("insert chat turn: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Clear(ctx context.Context, room string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_turns WHERE room = ?`, room); err != nil {
		return fmt.Errorf("clear chat turns: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
