package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath           string `json:"db_path"`
	DBSizeBytes      int64  `json:"db_size_bytes"`
	TotalDocuments   int    `json:"total_documents"`
	PendingDocuments int    `json:"pending_documents"`
	TotalChunks      int    `json:"total_chunks"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&st.TotalDocuments); err != nil {
		return st, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE processed_at IS NULL`).Scan(&st.PendingDocuments); err != nil {
		return st, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&st.TotalChunks); err != nil {
		return st, err
	}
	return st, nil
}
