package chat

import (
	"context"

	"github.com/kalambet/loanbot/internal/storage"
)

// SQLStore keeps history in the sqlite turn table.
type SQLStore struct {
	db *storage.Store
}

func NewSQLStore(db *storage.Store) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) History(ctx context.Context, sessionID string) ([]Turn, error) {
	rows, err := s.db.ListTurns(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	out := make([]Turn, len(rows))
	for i, r := range rows {
		out[i] = Turn{Role: r.Role, Content: r.Content}
	}
	return out, nil
}

func (s *SQLStore) Append(ctx context.Context, sessionID string, turns ...Turn) error {
	rows := make([]storage.Turn, len(turns))
	for i, t := range turns {
		rows[i] = storage.Turn{Role: t.Role, Content: t.Content}
	}
	return s.db.AppendTurns(ctx, sessionID, rows...)
}

func (s *SQLStore) Trim(ctx context.Context, sessionID string, max int) error {
	return s.db.TrimTurns(ctx, sessionID, max)
}

func (s *SQLStore) Clear(ctx context.Context, sessionID string) error {
	return s.db.DeleteSession(ctx, sessionID)
}
